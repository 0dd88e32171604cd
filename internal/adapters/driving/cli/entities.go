package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/loam/internal/core/domain"
)

var entitiesKind string

var entitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "Inspect the entity registry",
}

var entitiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered entities",
	Args:  cobra.NoArgs,
	RunE:  runEntitiesList,
}

var entitiesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one entity and its configuration",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntitiesShow,
}

var entitiesRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove an entity from the registry",
	Long: `Removes an entity's registry entry. The physical table is left in
place and is replaced by the next import of the entity.`,
	Args: cobra.ExactArgs(1),
	RunE: runEntitiesRemove,
}

func init() {
	entitiesListCmd.Flags().StringVar(&entitiesKind, "kind", "", "filter by kind (reference or dataset)")
	entitiesCmd.AddCommand(entitiesListCmd)
	entitiesCmd.AddCommand(entitiesShowCmd)
	entitiesCmd.AddCommand(entitiesRemoveCmd)
	rootCmd.AddCommand(entitiesCmd)
}

func runEntitiesList(cmd *cobra.Command, _ []string) error {
	kind, err := domain.ParseEntityKind(entitiesKind)
	if err != nil {
		return err
	}
	svc, err := loadServices(cmd)
	if err != nil {
		return err
	}

	entities, err := svc.Registry.ListEntities(cmd.Context(), kind)
	if err != nil {
		return fmt.Errorf("list entities: %w", err)
	}
	if len(entities) == 0 {
		cmd.Println("No entities registered.")
		return nil
	}

	rows := make([][]string, 0, len(entities))
	for _, e := range entities {
		rows = append(rows, []string{e.Name, string(e.Kind), e.TableName, e.UpdatedAt.Format(time.DateTime)})
	}
	cmd.Println(newStyles(cmd.OutOrStdout()).renderTable([]string{"NAME", "KIND", "TABLE", "UPDATED"}, rows))
	return nil
}

func runEntitiesShow(cmd *cobra.Command, args []string) error {
	svc, err := loadServices(cmd)
	if err != nil {
		return err
	}

	e, err := svc.Registry.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("entity %q: %w", args[0], err)
	}

	st := newStyles(cmd.OutOrStdout())
	cmd.Println(st.Title.Render(e.Name))
	cmd.Printf("  Kind:    %s\n", e.Kind)
	cmd.Printf("  Table:   %s\n", e.TableName)
	cmd.Printf("  Created: %s\n", e.CreatedAt.Format(time.DateTime))
	cmd.Printf("  Updated: %s\n", e.UpdatedAt.Format(time.DateTime))
	if len(e.Config) > 0 {
		out, err := yaml.Marshal(e.Config)
		if err != nil {
			return fmt.Errorf("render config: %w", err)
		}
		cmd.Println()
		cmd.Println(st.Muted.Render("Configuration:"))
		cmd.Print(string(out))
	}
	return nil
}

func runEntitiesRemove(cmd *cobra.Command, args []string) error {
	svc, err := loadServices(cmd)
	if err != nil {
		return err
	}

	e, err := svc.Registry.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("entity %q: %w", args[0], err)
	}
	if err := svc.Registry.Remove(cmd.Context(), e.Name); err != nil {
		return fmt.Errorf("remove %q: %w", e.Name, err)
	}
	cmd.Printf("Removed entity %s (table %s left in place).\n", e.Name, e.TableName)
	return nil
}
