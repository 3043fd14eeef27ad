package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/stubrouter/pkg/cli/internal/output"
	"github.com/getmockd/stubrouter/pkg/form"
	"github.com/getmockd/stubrouter/pkg/stub"
)

func newStubsCmd(g *globals) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "stubs",
		Short: "List, show, set and delete stubs of a target",
		Example: `  stubrouter stubs list --target svcA
  stubrouter stubs set /ping --target svcA --code 200 --data pong
  stubrouter stubs delete /ping --target svcA`,
	}
	cmd.PersistentFlags().StringVarP(&target, "target", "t", "", "Mock target (required)")
	_ = cmd.MarkPersistentFlagRequired("target")

	cmd.AddCommand(
		newStubsListCmd(g, &target),
		newStubsGetCmd(g, &target),
		newStubsSetCmd(g, &target),
		newStubsDeleteCmd(g, &target),
	)
	return cmd
}

func newStubsListCmd(g *globals, target *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the stubs of a target in store order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := g.client().ListStubs(cmd.Context(), *target)
			if err != nil {
				return formatClientError(err, *target, "")
			}
			if g.jsonOutput {
				return output.JSON(out(cmd), set)
			}
			if len(set) == 0 {
				fmt.Fprintf(out(cmd), "No stubs for %s\n", *target)
				return nil
			}

			w := output.Table(out(cmd))
			fmt.Fprintln(w, "PATH\tCODE\tTIMEOUT\tHEADERS\tDATA")
			for _, r := range set {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n",
					r.Path, r.Code, r.Timeout, len(r.Headers), output.Truncate(strconv.Quote(r.Data), 40))
			}
			return w.Flush()
		},
	}
}

func newStubsGetCmd(g *globals, target *string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <path>",
		Short: "Show one stub",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			s, err := g.client().GetStub(cmd.Context(), *target, path)
			if err != nil {
				return formatClientError(err, *target, path)
			}
			if g.jsonOutput {
				return output.JSON(out(cmd), stub.Record{Path: path, Stub: *s})
			}

			v := form.FromRecord(stub.Record{Path: path, Stub: *s})
			w := output.Table(out(cmd))
			fmt.Fprintf(w, "Path:\t%s\n", v.Path)
			fmt.Fprintf(w, "Code:\t%s\n", v.Code)
			fmt.Fprintf(w, "Timeout:\t%s\n", v.Timeout)
			fmt.Fprintf(w, "Headers:\t%s\n", v.Headers)
			fmt.Fprintf(w, "Data:\t%s\n", v.Data)
			return w.Flush()
		},
	}
}

func newStubsSetCmd(g *globals, target *string) *cobra.Command {
	var (
		code     int
		timeout  int
		data     string
		dataFile string
		headers  []string
	)

	cmd := &cobra.Command{
		Use:   "set [path]",
		Short: "Create or replace a stub",
		Long: `Create or replace a stub. Without a path the stub is entered
interactively.`,
		Args: cobra.MaximumNArgs(1),
		Example: `  stubrouter stubs set /users --target svcA --code 201 \
    --header Content-Type=application/json --data-file user.json --timeout 250
  stubrouter stubs set --target svcA`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dataFile != "" {
				b, err := os.ReadFile(dataFile)
				if err != nil {
					return fmt.Errorf("read data file: %w", err)
				}
				data = string(b)
			}
			h, err := parseHeaders(headers)
			if err != nil {
				return err
			}

			var path string
			if len(args) == 1 {
				path = args[0]
			}
			v := form.FromRecord(stub.Record{
				Path: path,
				Stub: stub.Stub{Code: code, Headers: h, Data: data, Timeout: timeout},
			})
			if path == "" {
				if v, err = promptStub(*target, v); err != nil {
					return err
				}
				path = v.Path
			}

			if err := g.client().SaveStub(cmd.Context(), *target, path, v); err != nil {
				return formatClientError(err, *target, path)
			}
			if g.jsonOutput {
				return output.JSON(out(cmd), map[string]string{"status": "ok", "target": *target, "path": path})
			}
			fmt.Fprintf(out(cmd), "Saved stub %s for %s\n", path, *target)
			return nil
		},
	}

	cmd.Flags().IntVar(&code, "code", 200, "Response status code")
	cmd.Flags().IntVar(&timeout, "timeout", 0, "Response delay in milliseconds")
	cmd.Flags().StringVar(&data, "data", "", "Response body")
	cmd.Flags().StringVar(&dataFile, "data-file", "", "Read the response body from a file")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Response header as Name=Value (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("data", "data-file")
	return cmd
}

func newStubsDeleteCmd(g *globals, target *string) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <path>",
		Aliases: []string{"rm"},
		Short:   "Delete a stub",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if err := g.client().DeleteStub(cmd.Context(), *target, path); err != nil {
				return formatClientError(err, *target, path)
			}
			if g.jsonOutput {
				return output.JSON(out(cmd), map[string]string{"status": "ok", "target": *target, "path": path})
			}
			fmt.Fprintf(out(cmd), "Deleted stub %s from %s\n", path, *target)
			return nil
		},
	}
}

// parseHeaders reads Name=Value pairs. A single argument holding a JSON
// object is accepted too.
func parseHeaders(args []string) (map[string]string, error) {
	h := make(map[string]string)
	if len(args) == 1 && strings.HasPrefix(args[0], "{") {
		if err := json.Unmarshal([]byte(args[0]), &h); err != nil {
			return nil, fmt.Errorf("invalid headers JSON: %w", err)
		}
		return h, nil
	}
	for _, a := range args {
		name, value, ok := cutHeader(a)
		if !ok {
			return nil, fmt.Errorf("invalid header %q: want Name=Value", a)
		}
		h[name] = value
	}
	return h, nil
}

func cutHeader(s string) (name, value string, ok bool) {
	i := strings.IndexAny(s, "=:")
	if i <= 0 {
		return "", "", false
	}
	return s[:i], strings.TrimPrefix(s[i+1:], " "), true
}
