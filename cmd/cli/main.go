// Command cli is a small terminal client for the bookshelf server:
// register an account, obtain a session token, add books and list the
// catalog. Passwords are read without echo.
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

const usage = `usage: cli [-s server] <command>

commands:
  register          create an account
  login             obtain a session token
  add -token <t>    add a book (requires a token from login)
  list              print the catalog
`

func main() {
	server := flag.String("s", "http://localhost:8080", "server base URL")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	client := &client{
		base: strings.TrimRight(*server, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}

	var err error
	switch cmd := flag.Arg(0); cmd {
	case "register":
		err = client.register()
	case "login":
		err = client.login()
	case "add":
		fs := flag.NewFlagSet("add", flag.ExitOnError)
		token := fs.String("token", "", "session token")
		_ = fs.Parse(flag.Args()[1:])
		err = client.addBook(*token)
	case "list":
		err = client.listBooks()
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type client struct {
	base string
	http *http.Client
}

// getSimpleText prints a prompt and reads one trimmed line.
func getSimpleText(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt + "\n> ")
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// getPassword reads a password from the terminal without echo.
func getPassword() ([]byte, error) {
	fmt.Print("Enter password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, err
	}
	return pw, nil
}

func (c *client) register() error {
	reader := bufio.NewReader(os.Stdin)

	username, err := getSimpleText(reader, "Username")
	if err != nil {
		return err
	}
	password, err := getPassword()
	if err != nil {
		return err
	}

	body, _ := json.Marshal(map[string]string{
		"username": username,
		"password": string(password),
	})

	resp, err := c.http.Post(c.base+"/register/", "application/json", strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return responseError(resp)
	}
	fmt.Println("Registered", username)
	return nil
}

func (c *client) login() error {
	reader := bufio.NewReader(os.Stdin)

	username, err := getSimpleText(reader, "Username")
	if err != nil {
		return err
	}
	password, err := getPassword()
	if err != nil {
		return err
	}

	form := url.Values{"username": {username}, "password": {string(password)}}
	resp, err := c.http.PostForm(c.base+"/token/", form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	fmt.Println(out.AccessToken)
	return nil
}

func (c *client) addBook(token string) error {
	if token == "" {
		return errors.New("a session token is required, run login first")
	}

	reader := bufio.NewReader(os.Stdin)
	fields := map[string]string{}
	for _, f := range []struct{ key, prompt string }{
		{"title", "Title"},
		{"author", "Author"},
		{"date", "Publication date (YYYY-MM-DD)"},
		{"description", "Description"},
	} {
		v, err := getSimpleText(reader, f.prompt)
		if err != nil {
			return err
		}
		fields[f.key] = v
	}

	body, _ := json.Marshal(fields)
	req, err := http.NewRequest(http.MethodPost, c.base+"/book/", strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return responseError(resp)
	}

	var book struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&book); err != nil {
		return err
	}
	fmt.Println("Added book", book.ID)
	return nil
}

func (c *client) listBooks() error {
	resp, err := c.http.Get(c.base + "/book/")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}

	var books []struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Author string `json:"author"`
		Date   string `json:"date"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&books); err != nil {
		return err
	}

	for _, b := range books {
		fmt.Printf("%s  %s by %s (%s)\n", b.ID, b.Title, b.Author, b.Date)
	}
	return nil
}

func responseError(resp *http.Response) error {
	var out struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err == nil && out.Detail != "" {
		return fmt.Errorf("%s: %s", resp.Status, out.Detail)
	}
	return errors.New(resp.Status)
}
