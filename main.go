/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
// @title           Budget Gin API
// @version         1.0
// @description     Budget and contract management API server with a multi-level approval workflow
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token from /auth/login
package main

import "github.com/mautops/budget-gin/cmd"

func main() {
	cmd.Execute()
}
