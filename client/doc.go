// Package client provides a client library for interacting with shelfd book catalog servers.
//
// It supports book and author operations with HTTP Basic authentication.
// The package includes profile-based configuration for managing connections to multiple servers.
//
// # Basic Usage
//
// Create a client and list books:
//
//	cfg := &client.Config{
//		Endpoint: "http://localhost:8008",
//		Username: "alice",
//		Password: "secret",
//	}
//
//	c, err := client.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	books, err := c.ListBooks(ctx, client.ListBooksOptions{})
//
// # Profile Configuration
//
// Use profiles to manage multiple server configurations:
//
//	configFile, err := client.LoadConfigFile("~/.shelfd/config.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := configFile.GetProfile("production")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	cfg := client.ConfigFromProfile(profile)
//	c, err := client.New(cfg)
//
// # Output Formatting
//
// Use formatters for human-readable or JSON output:
//
//	formatter := client.NewFormatter(jsonOutput, quiet)
//	formatter.FormatBookList(os.Stdout, books)
package client
