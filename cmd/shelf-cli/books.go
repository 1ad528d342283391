package main

import (
	"context"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shelfd/shelfd"
	"github.com/shelfd/shelfd/client"
)

var (
	listBookID   int64
	listBookType string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List books",
	Long: `List books on the server, optionally filtered by id and type.

When both filters are set, results must match both.

Examples:
  shelf-cli list
  shelf-cli list --type fiction
  shelf-cli list --id 42 --type fiction`,
	RunE: runList,
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a single book",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

var (
	bookName        string
	bookISBN        string
	bookType        string
	bookPublish     string
	bookPrice       float64
	bookAuthor      string
	bookNationality string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a book",
	Long: `Add a book to the catalog.

The author is referenced by name. If no author with that exact name
and nationality exists, one is created as part of the same write.

Examples:
  shelf-cli add --name "Dune" --isbn 9780441172719 --type fiction \
    --publish 1965-08-01 --price 9.99 --author "Frank Herbert" --nationality American`,
	RunE: runAdd,
}

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a book",
	Long: `Replace a book's fields.

All fields must be provided; the author reference is re-resolved and
may create a new author, same as add.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

var removeCmd = &cobra.Command{
	Use:   "remove <id> [id...]",
	Short: "Remove books",
	Long: `Remove one or more books by id.

Examples:
  shelf-cli remove 42
  shelf-cli remove 1 2 3`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

func init() {
	listCmd.Flags().Int64Var(&listBookID, "id", 0, "filter by book id")
	listCmd.Flags().StringVar(&listBookType, "type", "", "filter by book type")

	addBookFlags(addCmd)
	addBookFlags(updateCmd)

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(removeCmd)
}

func addBookFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&bookName, "name", "", "book name (required)")
	cmd.Flags().StringVar(&bookISBN, "isbn", "", "ISBN (required)")
	cmd.Flags().StringVar(&bookType, "type", "", "book type (required)")
	cmd.Flags().StringVar(&bookPublish, "publish", "", "publish date (required)")
	cmd.Flags().Float64Var(&bookPrice, "price", 0, "price")
	cmd.Flags().StringVar(&bookAuthor, "author", "", "author name (required)")
	cmd.Flags().StringVar(&bookNationality, "nationality", "", "author nationality")

	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("isbn")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("publish")
	_ = cmd.MarkFlagRequired("author")
}

// bookInputFromFlags assembles the request payload from the shared flags.
func bookInputFromFlags(cmd *cobra.Command) shelfd.BookInput {
	input := shelfd.BookInput{
		BookAttrs: shelfd.BookAttrs{
			Name:    bookName,
			ISBN:    bookISBN,
			Type:    bookType,
			Publish: bookPublish,
			Price:   bookPrice,
		},
		Author: bookAuthor,
	}
	if cmd.Flags().Changed("nationality") {
		input.AuthorNationality = &bookNationality
	}
	return input
}

func parseID(arg string) (int64, error) {
	return strconv.ParseInt(arg, 10, 64)
}

func runList(cmd *cobra.Command, _ []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	opts := client.ListBooksOptions{Type: listBookType}
	if cmd.Flags().Changed("id") {
		opts.ID = &listBookID
	}

	books, err := c.ListBooks(context.Background(), opts)
	if err != nil {
		_ = getFormatter().FormatError(os.Stderr, err)
		return err
	}

	return getFormatter().FormatBookList(os.Stdout, books)
}

func runGet(_ *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	c, err := getClient()
	if err != nil {
		return err
	}

	book, err := c.GetBook(context.Background(), id)
	if err != nil {
		_ = getFormatter().FormatError(os.Stderr, err)
		return err
	}

	return getFormatter().FormatBook(os.Stdout, book)
}

func runAdd(cmd *cobra.Command, _ []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	book, err := c.CreateBook(context.Background(), bookInputFromFlags(cmd))
	if err != nil {
		_ = getFormatter().FormatError(os.Stderr, err)
		return err
	}

	return getFormatter().FormatBook(os.Stdout, book)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	c, err := getClient()
	if err != nil {
		return err
	}

	book, err := c.UpdateBook(context.Background(), id, bookInputFromFlags(cmd))
	if err != nil {
		_ = getFormatter().FormatError(os.Stderr, err)
		return err
	}

	return getFormatter().FormatBook(os.Stdout, book)
}

func runRemove(_ *cobra.Command, args []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	formatter := getFormatter()
	failed := 0

	for _, arg := range args {
		id, parseErr := parseID(arg)
		if parseErr != nil {
			_ = formatter.FormatError(os.Stderr, parseErr)
			failed++
			continue
		}

		conf, delErr := c.DeleteBook(context.Background(), id)
		if delErr != nil {
			_ = formatter.FormatError(os.Stderr, delErr)
			failed++
			continue
		}

		_ = formatter.FormatConfirmation(os.Stdout, conf)
	}

	if failed > 0 {
		return &exitError{code: 1}
	}
	return nil
}
