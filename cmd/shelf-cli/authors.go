package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/shelfd/shelfd"
)

var authorsCmd = &cobra.Command{
	Use:   "authors",
	Short: "Manage authors",
	Long: `List, inspect, create, and remove authors.

Authors are normally created implicitly when a book references a new
author name; direct creation exists for cataloging an author before
any of their books.`,
}

var authorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List authors",
	RunE:  runAuthorsList,
}

var authorsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a single author",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthorsGet,
}

var (
	authorName        string
	authorNationality string
)

var authorsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an author",
	Long: `Add an author directly, without a book.

Examples:
  shelf-cli authors add --name "Frank Herbert" --nationality American
  shelf-cli authors add --name Anonymous`,
	RunE: runAuthorsAdd,
}

var authorsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove an author",
	Long: `Remove an author by id.

The server refuses with a conflict while any book still references
the author; remove or reassign the books first.`,
	Args: cobra.ExactArgs(1),
	RunE: runAuthorsRemove,
}

var authorsBooksCmd = &cobra.Command{
	Use:   "books <id>",
	Short: "Show an author with all their books",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthorsBooks,
}

var authorsAddBookCmd = &cobra.Command{
	Use:   "add-book <id>",
	Short: "Add a book under an existing author",
	Long: `Add a book directly under an existing author by id,
skipping author resolution by name.

Examples:
  shelf-cli authors add-book 3 --name "Children of Dune" --isbn 9780593098240 \
    --type fiction --publish 1976-04-21 --price 10.99`,
	Args: cobra.ExactArgs(1),
	RunE: runAuthorsAddBook,
}

func init() {
	authorsAddCmd.Flags().StringVar(&authorName, "name", "", "author name (required)")
	authorsAddCmd.Flags().StringVar(&authorNationality, "nationality", "", "author nationality")
	_ = authorsAddCmd.MarkFlagRequired("name")

	authorsAddBookCmd.Flags().StringVar(&bookName, "name", "", "book name (required)")
	authorsAddBookCmd.Flags().StringVar(&bookISBN, "isbn", "", "ISBN (required)")
	authorsAddBookCmd.Flags().StringVar(&bookType, "type", "", "book type (required)")
	authorsAddBookCmd.Flags().StringVar(&bookPublish, "publish", "", "publish date (required)")
	authorsAddBookCmd.Flags().Float64Var(&bookPrice, "price", 0, "price")
	_ = authorsAddBookCmd.MarkFlagRequired("name")
	_ = authorsAddBookCmd.MarkFlagRequired("isbn")
	_ = authorsAddBookCmd.MarkFlagRequired("type")
	_ = authorsAddBookCmd.MarkFlagRequired("publish")

	authorsCmd.AddCommand(authorsListCmd)
	authorsCmd.AddCommand(authorsGetCmd)
	authorsCmd.AddCommand(authorsAddCmd)
	authorsCmd.AddCommand(authorsRemoveCmd)
	authorsCmd.AddCommand(authorsBooksCmd)
	authorsCmd.AddCommand(authorsAddBookCmd)
	rootCmd.AddCommand(authorsCmd)
}

func runAuthorsList(_ *cobra.Command, _ []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	authors, err := c.ListAuthors(context.Background())
	if err != nil {
		_ = getFormatter().FormatError(os.Stderr, err)
		return err
	}

	return getFormatter().FormatAuthorList(os.Stdout, authors)
}

func runAuthorsGet(_ *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	c, err := getClient()
	if err != nil {
		return err
	}

	author, err := c.GetAuthor(context.Background(), id)
	if err != nil {
		_ = getFormatter().FormatError(os.Stderr, err)
		return err
	}

	return getFormatter().FormatAuthor(os.Stdout, author)
}

func runAuthorsAdd(cmd *cobra.Command, _ []string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	input := shelfd.AuthorInput{Name: authorName}
	if cmd.Flags().Changed("nationality") {
		input.Nationality = &authorNationality
	}

	author, err := c.CreateAuthor(context.Background(), input)
	if err != nil {
		_ = getFormatter().FormatError(os.Stderr, err)
		return err
	}

	return getFormatter().FormatAuthor(os.Stdout, author)
}

func runAuthorsRemove(_ *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	c, err := getClient()
	if err != nil {
		return err
	}

	conf, err := c.DeleteAuthor(context.Background(), id)
	if err != nil {
		_ = getFormatter().FormatError(os.Stderr, err)
		return err
	}

	return getFormatter().FormatConfirmation(os.Stdout, conf)
}

func runAuthorsBooks(_ *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	c, err := getClient()
	if err != nil {
		return err
	}

	result, err := c.GetAuthorBooks(context.Background(), id)
	if err != nil {
		_ = getFormatter().FormatError(os.Stderr, err)
		return err
	}

	return getFormatter().FormatAuthorWithBooks(os.Stdout, result)
}

func runAuthorsAddBook(_ *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	c, err := getClient()
	if err != nil {
		return err
	}

	attrs := shelfd.BookAttrs{
		Name:    bookName,
		ISBN:    bookISBN,
		Type:    bookType,
		Publish: bookPublish,
		Price:   bookPrice,
	}

	book, err := c.AddBookForAuthor(context.Background(), id, attrs)
	if err != nil {
		_ = getFormatter().FormatError(os.Stderr, err)
		return err
	}

	return getFormatter().FormatBook(os.Stdout, book)
}
