package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/clcollins/incmgr/pkg/controller"
	"github.com/clcollins/incmgr/pkg/incident"
	"github.com/clcollins/incmgr/pkg/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

var listCmd = &cobra.Command{
	Use:          "list",
	Short:        "List incidents",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newController(viper.GetViper())
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")
		return runList(cmd.Context(), c, cmd.OutOrStdout(), output)
	},
}

var createCmd = &cobra.Command{
	Use:          "create",
	Short:        "Create an incident",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newController(viper.GetViper())
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		description, _ := cmd.Flags().GetString("description")
		return runCreate(cmd.Context(), c, cmd.OutOrStdout(), name, description)
	},
}

var updateCmd = &cobra.Command{
	Use:          "update <id>",
	Short:        "Update the name or description of an incident",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := incident.ParseID(args[0])
		if err != nil {
			return fmt.Errorf("invalid incident id `%v`: %w", args[0], err)
		}
		c, err := newController(viper.GetViper())
		if err != nil {
			return err
		}
		return runUpdate(cmd.Context(), c, cmd.OutOrStdout(), id, changedFlag(cmd, "name"), changedFlag(cmd, "description"))
	},
}

var deleteCmd = &cobra.Command{
	Use:          "delete <id>",
	Short:        "Delete an incident",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := incident.ParseID(args[0])
		if err != nil {
			return fmt.Errorf("invalid incident id `%v`: %w", args[0], err)
		}
		c, err := newController(viper.GetViper())
		if err != nil {
			return err
		}
		return runDelete(cmd.Context(), c, cmd.OutOrStdout(), id)
	},
}

func init() {
	rootCmd.AddCommand(listCmd, createCmd, updateCmd, deleteCmd)

	listCmd.Flags().StringP("output", "o", outputTable, "Output format: table or json")

	createCmd.Flags().String("name", "", "Incident name")
	createCmd.Flags().String("description", "", "Incident description")
	cobra.CheckErr(createCmd.MarkFlagRequired("name"))
	cobra.CheckErr(createCmd.MarkFlagRequired("description"))

	updateCmd.Flags().String("name", "", "New incident name")
	updateCmd.Flags().String("description", "", "New incident description")
	updateCmd.MarkFlagsOneRequired("name", "description")
}

func newController(v *viper.Viper) (*controller.Controller, error) {
	client, err := store.NewClient(storeConfig(v, registry))
	if err != nil {
		return nil, err
	}
	return controller.New(client, controllerOptions(v)...), nil
}

// changedFlag returns the flag value, or nil when it was not given
func changedFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

// userError prefers the message shown to TUI users over the wrapped error chain
func userError(c *controller.Controller, err error) error {
	if msg := c.State().ErrMessage; msg != "" {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return err
}

func runList(ctx context.Context, c *controller.Controller, w io.Writer, output string) error {
	if output != outputTable && output != outputJSON {
		return fmt.Errorf("unknown output format `%v`", output)
	}

	if err := c.MountSync(ctx); err != nil {
		return userError(c, err)
	}
	incidents := c.State().Incidents
	log.Debug("runList", "incidents", len(incidents))

	if output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if incidents == nil {
			incidents = []incident.Incident{}
		}
		return enc.Encode(incidents)
	}

	_, err := fmt.Fprintln(w, incidentTable(incidents))
	return err
}

func incidentTable(incidents []incident.Incident) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "DESCRIPTION", "DATE").
		StyleFunc(func(row, col int) lipgloss.Style {
			return cellStyle
		})
	for _, i := range incidents {
		t.Row(i.IDString(), i.Name, i.Description, i.DateTime)
	}
	return t.String()
}

func runCreate(ctx context.Context, c *controller.Controller, w io.Writer, name, description string) error {
	c.SetField(controller.FieldName, name)
	c.SetField(controller.FieldDescription, description)
	if err := c.SubmitSync(ctx); err != nil {
		return userError(c, err)
	}
	_, err := fmt.Fprintln(w, "incident created")
	return err
}

// runUpdate loads the collection so the incident can be edited from its
// current values; nil fields are left unchanged
func runUpdate(ctx context.Context, c *controller.Controller, w io.Writer, id int64, name, description *string) error {
	if err := c.MountSync(ctx); err != nil {
		return userError(c, err)
	}
	if !c.BeginEditID(id) {
		return fmt.Errorf("incident %d not found", id)
	}
	if name != nil {
		c.SetField(controller.FieldName, *name)
	}
	if description != nil {
		c.SetField(controller.FieldDescription, *description)
	}
	if err := c.SubmitSync(ctx); err != nil {
		return userError(c, err)
	}
	_, err := fmt.Fprintf(w, "incident %d updated\n", id)
	return err
}

func runDelete(ctx context.Context, c *controller.Controller, w io.Writer, id int64) error {
	if err := c.DeleteSync(ctx, id); err != nil {
		return userError(c, err)
	}
	_, err := fmt.Fprintf(w, "incident %d deleted\n", id)
	return err
}
