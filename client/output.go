package client

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shelfd/shelfd"
)

// Formatter formats results for output.
type Formatter interface {
	FormatBook(w io.Writer, book shelfd.Book) error
	FormatBookList(w io.Writer, books []shelfd.Book) error
	FormatAuthor(w io.Writer, author shelfd.Author) error
	FormatAuthorList(w io.Writer, authors []shelfd.Author) error
	FormatAuthorWithBooks(w io.Writer, result shelfd.AuthorWithBooks) error
	FormatConfirmation(w io.Writer, conf shelfd.Confirmation) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatBook formats a single book as human-readable text.
func (f *HumanFormatter) FormatBook(w io.Writer, book shelfd.Book) error {
	_, _ = fmt.Fprintf(w, "ID:        %d\n", book.ID)
	_, _ = fmt.Fprintf(w, "Name:      %s\n", book.Name)
	_, _ = fmt.Fprintf(w, "ISBN:      %s\n", book.ISBN)
	_, _ = fmt.Fprintf(w, "Type:      %s\n", book.Type)
	_, _ = fmt.Fprintf(w, "Published: %s\n", book.Publish)
	_, _ = fmt.Fprintf(w, "Price:     %.2f\n", book.Price)
	_, _ = fmt.Fprintf(w, "Author ID: %d\n", book.AuthorID)
	return nil
}

// FormatBookList formats books as a table.
func (f *HumanFormatter) FormatBookList(w io.Writer, books []shelfd.Book) error {
	if len(books) == 0 {
		_, _ = fmt.Fprintln(w, "No books found")
		return nil
	}

	maxNameLen := 4 // "NAME"
	for i := range books {
		if len(books[i].Name) > maxNameLen {
			maxNameLen = len(books[i].Name)
		}
	}
	if maxNameLen > 40 {
		maxNameLen = 40
	}

	_, _ = fmt.Fprintf(w, "%6s  %-*s  %-15s  %-10s  %10s  %s\n", "ID", maxNameLen, "NAME", "ISBN", "TYPE", "PRICE", "AUTHOR")
	_, _ = fmt.Fprintf(w, "%s  %s  %s  %s  %s  %s\n",
		strings.Repeat("-", 6), strings.Repeat("-", maxNameLen), strings.Repeat("-", 15),
		strings.Repeat("-", 10), strings.Repeat("-", 10), strings.Repeat("-", 6))

	for i := range books {
		b := &books[i]
		name := b.Name
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}
		_, _ = fmt.Fprintf(w, "%6d  %-*s  %-15s  %-10s  %10.2f  %d\n",
			b.ID, maxNameLen, name, b.ISBN, b.Type, b.Price, b.AuthorID)
	}

	_, _ = fmt.Fprintf(w, "\n%d book(s)\n", len(books))
	return nil
}

// FormatAuthor formats a single author as human-readable text.
func (f *HumanFormatter) FormatAuthor(w io.Writer, author shelfd.Author) error {
	_, _ = fmt.Fprintf(w, "ID:          %d\n", author.ID)
	_, _ = fmt.Fprintf(w, "Name:        %s\n", author.Name)
	_, _ = fmt.Fprintf(w, "Nationality: %s\n", nationalityString(author.Nationality))
	return nil
}

// FormatAuthorList formats authors as a table.
func (f *HumanFormatter) FormatAuthorList(w io.Writer, authors []shelfd.Author) error {
	if len(authors) == 0 {
		_, _ = fmt.Fprintln(w, "No authors found")
		return nil
	}

	maxNameLen := 4 // "NAME"
	for i := range authors {
		if len(authors[i].Name) > maxNameLen {
			maxNameLen = len(authors[i].Name)
		}
	}
	if maxNameLen > 40 {
		maxNameLen = 40
	}

	_, _ = fmt.Fprintf(w, "%6s  %-*s  %s\n", "ID", maxNameLen, "NAME", "NATIONALITY")
	_, _ = fmt.Fprintf(w, "%s  %s  %s\n",
		strings.Repeat("-", 6), strings.Repeat("-", maxNameLen), strings.Repeat("-", 11))

	for i := range authors {
		a := &authors[i]
		_, _ = fmt.Fprintf(w, "%6d  %-*s  %s\n", a.ID, maxNameLen, a.Name, nationalityString(a.Nationality))
	}

	_, _ = fmt.Fprintf(w, "\n%d author(s)\n", len(authors))
	return nil
}

// FormatAuthorWithBooks formats an author and their books.
func (f *HumanFormatter) FormatAuthorWithBooks(w io.Writer, result shelfd.AuthorWithBooks) error {
	if err := f.FormatAuthor(w, result.Author); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w)
	return f.FormatBookList(w, result.Books)
}

// FormatConfirmation formats a delete confirmation.
func (f *HumanFormatter) FormatConfirmation(w io.Writer, conf shelfd.Confirmation) error {
	if !f.Quiet {
		_, _ = fmt.Fprintln(w, conf.Message)
	}
	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// FormatProfileList formats a list of profiles as human-readable text.
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	maxNameLen := 4     // "NAME"
	maxEndpointLen := 8 // "ENDPOINT"
	for i := range profiles {
		if len(profiles[i].Name) > maxNameLen {
			maxNameLen = len(profiles[i].Name)
		}
		if len(profiles[i].Endpoint) > maxEndpointLen {
			maxEndpointLen = len(profiles[i].Endpoint)
		}
	}
	if maxNameLen > 20 {
		maxNameLen = 20
	}
	if maxEndpointLen > 50 {
		maxEndpointLen = 50
	}

	_, _ = fmt.Fprintf(w, "  %-*s  %-*s  %s\n", maxNameLen, "NAME", maxEndpointLen, "ENDPOINT", "USERNAME")
	_, _ = fmt.Fprintf(w, "  %s  %s  %s\n", strings.Repeat("-", maxNameLen), strings.Repeat("-", maxEndpointLen), strings.Repeat("-", 20))

	for i := range profiles {
		p := &profiles[i]
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}

		name := p.Name
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}

		endpoint := p.Endpoint
		if len(endpoint) > maxEndpointLen {
			endpoint = endpoint[:maxEndpointLen-3] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s %-*s  %-*s  %s\n", marker, maxNameLen, name, maxEndpointLen, endpoint, p.Username)
	}

	return nil
}

// FormatProfileShow formats a single profile as human-readable text.
func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	_, _ = fmt.Fprintf(w, "Name:     %s", profile.Name)
	if isDefault {
		_, _ = fmt.Fprintf(w, " (default)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Endpoint: %s\n", profile.Endpoint)
	_, _ = fmt.Fprintf(w, "Username: %s\n", profile.Username)
	_, _ = fmt.Fprintf(w, "Password: %s\n", maskSecret(profile.Password, showSecrets))
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatBook formats a single book as JSON.
func (f *JSONFormatter) FormatBook(w io.Writer, book shelfd.Book) error {
	return writeJSON(w, book)
}

// FormatBookList formats books as JSON.
func (f *JSONFormatter) FormatBookList(w io.Writer, books []shelfd.Book) error {
	return writeJSON(w, books)
}

// FormatAuthor formats a single author as JSON.
func (f *JSONFormatter) FormatAuthor(w io.Writer, author shelfd.Author) error {
	return writeJSON(w, author)
}

// FormatAuthorList formats authors as JSON.
func (f *JSONFormatter) FormatAuthorList(w io.Writer, authors []shelfd.Author) error {
	return writeJSON(w, authors)
}

// FormatAuthorWithBooks formats an author and their books as JSON.
func (f *JSONFormatter) FormatAuthorWithBooks(w io.Writer, result shelfd.AuthorWithBooks) error {
	return writeJSON(w, result)
}

// FormatConfirmation formats a delete confirmation as JSON.
func (f *JSONFormatter) FormatConfirmation(w io.Writer, conf shelfd.Confirmation) error {
	return writeJSON(w, conf)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return writeJSON(w, output)
}

// FormatProfileList formats a list of profiles as JSON.
func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	type jsonProfile struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
		Username string `json:"username,omitempty"`
		Password string `json:"password,omitempty"`
		Default  bool   `json:"default,omitempty"`
	}

	output := struct {
		Profiles []jsonProfile `json:"profiles"`
	}{
		Profiles: make([]jsonProfile, len(profiles)),
	}

	for i := range profiles {
		p := &profiles[i]
		jp := jsonProfile{
			Name:     p.Name,
			Endpoint: p.Endpoint,
			Username: p.Username,
			Default:  p.Name == defaultName,
		}
		jp.Password = maskSecret(p.Password, showSecrets)
		output.Profiles[i] = jp
	}

	return writeJSON(w, output)
}

// FormatProfileShow formats a single profile as JSON.
func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	output := struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
		Username string `json:"username"`
		Password string `json:"password"`
		Default  bool   `json:"default"`
	}{
		Name:     profile.Name,
		Endpoint: profile.Endpoint,
		Username: profile.Username,
		Password: maskSecret(profile.Password, showSecrets),
		Default:  isDefault,
	}

	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// nationalityString renders an optional nationality for display.
func nationalityString(n *string) string {
	if n == nil {
		return "(not set)"
	}
	return *n
}

// maskSecret masks a secret string, showing only first 2 and last 2 characters.
// If showSecrets is true, returns the original value.
// If the secret is too short, returns all asterisks.
func maskSecret(secret string, showSecrets bool) string {
	if showSecrets {
		return secret
	}
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:2] + "..." + secret[len(secret)-2:]
}
