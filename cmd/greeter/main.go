// Command greeter serves a page that writes a greeting to the cache and
// shows what the cache returns.
package main

import "github.com/Aidin1998/greeter/internal/app"

func main() {
	app.Main(app.Options{Name: "greeter"})
}
