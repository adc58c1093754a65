// Command greeter-visits serves the greeter page and additionally records
// every visit in the relational database, listing all recorded visits.
package main

import "github.com/Aidin1998/greeter/internal/app"

func main() {
	app.Main(app.Options{Name: "greeter-visits", WithVisits: true})
}
