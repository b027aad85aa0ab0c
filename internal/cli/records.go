package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/hrentities/pkg/client"
	"github.com/mesh-intelligence/hrentities/pkg/entity"
	"github.com/mesh-intelligence/hrentities/pkg/manager"
	"github.com/mesh-intelligence/hrentities/pkg/types"
)

// withInstance opens a client instance for the duration of fn.
func withInstance(cmd *cobra.Command, fn func(inst *client.Instance) error) (err error) {
	inst, err := openInstance(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := inst.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close instance: %w", cerr)
		}
	}()
	return fn(inst)
}

func newMetaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "meta <entity>",
		Short: "Show the fields of an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInstance(cmd, func(inst *client.Instance) error {
				e, err := inst.Manager().GetEntity(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if flags.jsonMode {
					return printJSON(out, e.Metadata())
				}
				fmt.Fprintf(out, "%s (%s)\n", e.Name(), e.Label())
				if parent := e.ParentEntityName(); parent != "" {
					fmt.Fprintf(out, "Parent: %s\n", parent)
				}
				t := newTable("NAME", "LABEL", "SEARCH LABEL", "TYPE", "OPTIONS")
				for _, f := range e.Fields() {
					t.row(f.Name(), f.Label(), f.SearchLabel(), f.TypeName(), strings.Join(f.AllOptionLabels(), ", "))
				}
				t.print(out)
				return nil
			})
		},
	}
}

func newListCmd() *cobra.Command {
	var opts manager.ListOptions
	cmd := &cobra.Command{
		Use:   "list <entity>",
		Short: "List records of an entity",
		Long: `List requests one page of records.

Example:
  hrctl list Employee
  hrctl list Employee --fields Id,FirstName --sort FirstName --page-size 20 --page 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInstance(cmd, func(inst *client.Instance) error {
				records, err := inst.Manager().ListEntities(cmd.Context(), args[0], opts)
				if err != nil {
					return err
				}
				return printRecords(cmd.OutOrStdout(), records, opts.Fields)
			})
		},
	}
	cmd.Flags().StringSliceVar(&opts.Fields, "fields", nil, "fields to return")
	cmd.Flags().StringVar(&opts.Query, "query", "", "search query")
	cmd.Flags().StringVar(&opts.Sort, "sort", "", "sort expression")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 0, "records per page (0 = server default)")
	cmd.Flags().IntVar(&opts.Page, "page", 0, "page number (0 = first)")
	return cmd
}

func printRecords(w io.Writer, records []*entity.Entity, columns []string) error {
	if flags.jsonMode {
		out := make([]map[string]any, 0, len(records))
		for _, e := range records {
			out = append(out, e.DataSourceValue())
		}
		return printJSON(w, out)
	}
	if len(records) == 0 {
		fmt.Fprintln(w, "No records found.")
		return nil
	}
	if len(columns) == 0 {
		columns = records[0].FieldNames()
	}
	t := newTable(columns...)
	for _, e := range records {
		cells := make([]string, len(columns))
		for i, name := range columns {
			if f, ok := e.Field(name); ok {
				cells[i] = displayValue(f)
			}
		}
		t.row(cells...)
	}
	t.print(w)
	fmt.Fprintf(w, "Total: %d record(s)\n", len(records))
	return nil
}

func printEntity(w io.Writer, e *entity.Entity) error {
	if flags.jsonMode {
		return printJSON(w, e.DataSourceValue())
	}
	printRecord(w, e)
	return nil
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <entity> <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInstance(cmd, func(inst *client.Instance) error {
				e, err := inst.Manager().GetEntityByID(cmd.Context(), args[0], parseID(args[1]))
				if err != nil {
					return err
				}
				if e == nil {
					return fmt.Errorf("%s %s not found", args[0], args[1])
				}
				return printEntity(cmd.OutOrStdout(), e)
			})
		},
	}
}

// loadRecord builds an entity of the named kind from a JSON object given as
// an argument, or read from stdin when the argument is "-".
func loadRecord(cmd *cobra.Command, m *manager.Manager, name, arg string) (*entity.Entity, error) {
	var src io.Reader = strings.NewReader(arg)
	if arg == "-" {
		src = cmd.InOrStdin()
	}
	dec := json.NewDecoder(src)
	dec.UseNumber()
	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("parse record: %w", err)
	}
	e, err := m.GetEntity(cmd.Context(), name)
	if err != nil {
		return nil, err
	}
	if err := e.Load(data); err != nil {
		return nil, err
	}
	return e, nil
}

func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <entity> <json|->",
		Short: "Create a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInstance(cmd, func(inst *client.Instance) error {
				e, err := loadRecord(cmd, inst.Manager(), args[0], args[1])
				if err != nil {
					return err
				}
				created, err := inst.Manager().Create(cmd.Context(), e)
				if err != nil {
					return err
				}
				if created == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", args[0])
					return nil
				}
				return printEntity(cmd.OutOrStdout(), created)
			})
		},
	}
}

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <entity> <json|->",
		Short: "Update a record; the JSON must include Id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInstance(cmd, func(inst *client.Instance) error {
				e, err := loadRecord(cmd, inst.Manager(), args[0], args[1])
				if err != nil {
					return err
				}
				updated, err := inst.Manager().Update(cmd.Context(), e)
				if err != nil {
					return err
				}
				if updated == nil {
					id, _ := e.ID()
					fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %v\n", args[0], id)
					return nil
				}
				return printEntity(cmd.OutOrStdout(), updated)
			})
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <entity> <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInstance(cmd, func(inst *client.Instance) error {
				// The id is only used in the request path, whatever the kind
				// of the Id field.
				if err := inst.Manager().DeleteByID(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", args[0], args[1])
				return nil
			})
		},
	}
}

func newAccessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "access <entity> <id>",
		Short: "Explain what the configured user may do with a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInstance(cmd, func(inst *client.Instance) error {
				e, err := inst.Manager().GetEntityByID(cmd.Context(), args[0], parseID(args[1]))
				if err != nil {
					return err
				}
				if e == nil {
					return fmt.Errorf("%s %s not found", args[0], args[1])
				}
				decisions := explainAll(e, inst.User())
				out := cmd.OutOrStdout()
				if flags.jsonMode {
					return printJSON(out, decisions)
				}
				t := newTable("ACTION", "FIELD", "ALLOWED", "REASON")
				for _, d := range decisions {
					t.row(string(d.Action), d.Field, strconv.FormatBool(d.Allowed), d.Reason)
				}
				t.print(out)
				return nil
			})
		},
	}
}

// explainAll resolves every entity action, then every field action.
func explainAll(e *entity.Entity, user *types.User) []entity.Decision {
	var out []entity.Decision
	for _, a := range types.EntityActions {
		out = append(out, e.Explain(user, a))
	}
	for _, name := range e.FieldNames() {
		for _, a := range types.FieldActions {
			out = append(out, e.ExplainField(name, user, a))
		}
	}
	return out
}
