package cli

import (
	"github.com/spf13/cobra"
)

var connectorsCmd = &cobra.Command{
	Use:   "connectors [type]",
	Short: "List available connector types",
	Long:  `Lists the connector types an import configuration may use, or the keys accepted by one type.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConnectors,
}

func init() {
	rootCmd.AddCommand(connectorsCmd)
}

func runConnectors(cmd *cobra.Command, args []string) error {
	svc, err := loadServices(cmd)
	if err != nil {
		return err
	}
	st := newStyles(cmd.OutOrStdout())

	if len(args) == 0 {
		var rows [][]string
		for _, ct := range svc.Connectors.List() {
			use := "any entity"
			if ct.ReferenceOnly {
				use = "references only"
			}
			rows = append(rows, []string{ct.ID, ct.Description, use})
		}
		cmd.Println(st.renderTable([]string{"TYPE", "DESCRIPTION", "USE"}, rows))
		return nil
	}

	ct, err := svc.Connectors.Get(args[0])
	if err != nil {
		return err
	}
	cmd.Println(st.Title.Render(ct.Name + " (" + ct.ID + ")"))
	cmd.Println(ct.Description)
	if ct.RequiresAuth {
		cmd.Println(st.Muted.Render("May require credentials."))
	}
	if len(ct.ConfigKeys) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(ct.ConfigKeys))
	for _, k := range ct.ConfigKeys {
		required := ""
		if k.Required {
			required = "yes"
		}
		rows = append(rows, []string{k.Key, required, k.Default, k.Description})
	}
	cmd.Println(st.renderTable([]string{"KEY", "REQUIRED", "DEFAULT", "DESCRIPTION"}, rows))
	return nil
}
