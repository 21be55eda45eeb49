// Command convoview serves, imports and inspects analyzed call
// conversations.
//
//	convoview serve                      run the HTTP API
//	convoview migrate [--steps N]        apply the SQL migrations
//	convoview import call.json --name a.mp3 --path calls/a.mp3
//	convoview stats call.json            print stats for a document
//	convoview stats --id 3               print stats fetched from a server
//	convoview view --server URL          browse conversations in the terminal
//	convoview user add alice alice@example.com
//	convoview version
package main
