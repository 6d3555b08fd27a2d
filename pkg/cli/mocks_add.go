package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/devproxy-io/devproxy/pkg/devproxyconfig"
	"github.com/devproxy-io/devproxy/pkg/mockplugin"
	"github.com/spf13/cobra"
)

var mocksAddFile string

var mocksCmd = &cobra.Command{
	Use:   "mocks",
	Short: "Manage mock-response catalog entries",
}

var mocksAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Interactively add a mock to a mocks file",
	Long: `Walks an interactive form (URL pattern, method, status, response body) and
appends the resulting Mock to the catalog at --file, creating it if absent.`,
	RunE: runMocksAdd,
}

func init() {
	mocksAddCmd.Flags().StringVarP(&mocksAddFile, "file", "f", "mocks.json", "mocks file to append to")
	mocksCmd.AddCommand(mocksAddCmd)
}

func runMocksAdd(cmd *cobra.Command, args []string) error {
	var (
		urlPattern = "https://api.example.com/*"
		method     = "GET"
		statusStr  = "200"
		bodyJSON   = `{"status":"ok"}`
		nthStr     = ""
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("What URL should this mock match?").
				Placeholder(urlPattern).
				Value(&urlPattern).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("url is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Which HTTP method?").
				Options(
					huh.NewOption("GET", "GET"),
					huh.NewOption("POST", "POST"),
					huh.NewOption("PUT", "PUT"),
					huh.NewOption("PATCH", "PATCH"),
					huh.NewOption("DELETE", "DELETE"),
				).
				Value(&method),
			huh.NewInput().
				Title("Response status code").
				Value(&statusStr).
				Validate(func(s string) error {
					if _, err := strconv.Atoi(s); err != nil {
						return errors.New("must be a number")
					}
					return nil
				}),
			huh.NewText().
				Title("Response body (JSON)").
				Placeholder(bodyJSON).
				Value(&bodyJSON),
			huh.NewInput().
				Title("Only match the Nth occurrence of this URL (blank for every match)").
				Value(&nthStr),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("mock form aborted: %w", err)
	}

	status, _ := strconv.Atoi(statusStr)
	nth := 0
	if nthStr != "" {
		n, err := strconv.Atoi(nthStr)
		if err != nil {
			return fmt.Errorf("invalid nth value %q: %w", nthStr, err)
		}
		nth = n
	}
	if !json.Valid([]byte(bodyJSON)) {
		// A bare string body is valid too; wrap it as a JSON string literal
		// so the mocks file always holds well-formed JSON (§4.7 body shapes).
		bodyJSON = strconv.Quote(bodyJSON)
	}

	mock := mockplugin.Mock{
		Request: mockplugin.MockRequest{
			URL:    urlPattern,
			Method: method,
			Nth:    nth,
		},
		Response: mockplugin.MockResponse{
			StatusCode: status,
			Body:       json.RawMessage(bodyJSON),
		},
	}

	mocks, _, err := devproxyconfig.LoadMocksFromFile(mocksAddFile)
	if err != nil {
		mocks = nil
	}
	mocks = append(mocks, mock)

	if err := devproxyconfig.SaveMocksToFile(mocksAddFile, mocks); err != nil {
		return fmt.Errorf("save mocks file %s: %w", mocksAddFile, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added mock for %s %s (status %d) to %s\n", method, urlPattern, status, mocksAddFile)
	return nil
}
