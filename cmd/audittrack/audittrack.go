package main

import "github.com/Egor213/AuditTrack/internal/app"

func main() {
	app.Run()
}
