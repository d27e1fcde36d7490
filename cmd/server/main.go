package main

import "messease/internal/app/server"

func main() {
	server.Run()
}
