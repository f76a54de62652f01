package main

import "tasktrack/cmd"

// @title Tasktrack API
// @version 1.0
// @description Personal task tracker with JWT authentication and owner-scoped task CRUD.
// @host localhost:8080
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cmd.Execute()
}
