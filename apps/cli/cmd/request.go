package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	commenthttp "github.com/abdul-hamid-achik/commentclient/packages/http"
	"github.com/abdul-hamid-achik/commentclient/packages/inspect"
)

var requestCmd = &cobra.Command{
	Use:   "request <METHOD> <URL>",
	Short: "Send one request to the comments service",
	Long: `Send one authenticated request and print the response body.

GET and DELETE send data as query parameters; POST, PUT and PATCH send it
as a form body. Relative URLs are joined onto baseUrl.

Examples:
  commentclient request GET /api/v1/threads -d course_id=course-v1:X+Y+Z
  commentclient request POST /api/v1/threads/t1/comments -d body=hello -d user_id=7
  commentclient request GET /api/v1/threads/t1 --query title
  commentclient request GET /api/v1/threads/t1 --schema thread.schema.json
  commentclient request DELETE /api/v1/comments/c1 --raw`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeMethods,
	RunE:              requestCommand,
}

var (
	requestDataFlag    []string
	requestRawFlag     bool
	requestQueryFlag   string
	requestSchemaFlag  string
	requestVerboseFlag bool
)

func init() {
	requestCmd.Flags().StringArrayVarP(&requestDataFlag, "data", "d", nil, "Payload field as key=value (repeatable)")
	requestCmd.Flags().BoolVar(&requestRawFlag, "raw", false, "Print the body as received instead of decoding JSON")
	requestCmd.Flags().StringVarP(&requestQueryFlag, "query", "q", "", "Print only the value at this path (gjson syntax, or status / header.<Name>)")
	requestCmd.Flags().StringVar(&requestSchemaFlag, "schema", "", "Validate the response body against a JSON schema file")
	requestCmd.Flags().BoolVarP(&requestVerboseFlag, "verbose", "v", false, "Print the status line and request id to stderr")
}

func requestCommand(cmd *cobra.Command, args []string) error {
	payload, err := parseData(requestDataFlag)
	if err != nil {
		return err
	}

	s, err := newSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	req, err := commenthttp.NewRequest(args[0], resolveURL(s.config.BaseURL, args[1]), payload)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	resp, err := s.client.Do(cmd.Context(), req)
	if err != nil {
		return err
	}

	if requestVerboseFlag {
		printStatus(cmd.ErrOrStderr(), resp)
	}

	if err := resp.Classify(s.client.MaintenanceStatus()); err != nil {
		return err
	}

	return printResponse(cmd.OutOrStdout(), resp)
}

func printResponse(w io.Writer, resp *commenthttp.Response) error {
	if requestSchemaFlag != "" {
		if err := inspect.ValidateSchemaFile(requestSchemaFlag, resp); err != nil {
			return err
		}
	}

	if requestQueryFlag != "" {
		value, ok := inspect.New(resp).SelectRaw(requestQueryFlag)
		if !ok {
			return fmt.Errorf("no value at %q", requestQueryFlag)
		}
		fmt.Fprintln(w, value)
		return nil
	}

	if requestRawFlag {
		fmt.Fprint(w, resp.BodyString())
		return nil
	}

	body, err := resp.BodyJSON()
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(out))
	return nil
}

func printStatus(w io.Writer, resp *commenthttp.Response) {
	c := color.New(color.FgGreen)
	switch {
	case resp.StatusCode >= 500:
		c = color.New(color.FgRed)
	case resp.StatusCode >= 300:
		c = color.New(color.FgYellow)
	}
	c.Fprintf(w, "%s", resp.Status)
	fmt.Fprintf(w, "  %dms  request_id=%s\n", resp.Duration.Milliseconds(), resp.RequestID)
}
