// Package components provides the peripherals driven through a board.
//
// Every variant embeds *board.Base, translates its actions into wire
// commands in Apply and keeps its cached state in sync from events in
// OnEvent. Most state changes are confirmed by the board's acks: calling
// Led.On sends the command, and IsOn reports true once the ack arrives.
package components
