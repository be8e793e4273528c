package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"log"

	"github.com/golang/glog"

	"github.com/robotalks/dino.go/pkg/env"
	fx "github.com/robotalks/dino.go/pkg/framework"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	e := env.NewConfig().MustNewEnv(context.Background())
	err := fx.NewRunner().HandleSignals().Go(e.Runnables()...).Wait()
	e.Close()
	if err != nil {
		log.Fatalln(err)
	}
}
