package cmd

import (
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/models"
	"github.com/digitallive06-cyber/Elite-wave-GO/pkg/format"
)

var profileCmd = &cobra.Command{
	Use:     "profile",
	Aliases: []string{"profiles"},
	Short:   "Manage saved panel profiles",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles",
	Args:  cobra.NoArgs,
	RunE:  runProfileList,
}

var profileAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Save a profile after checking its credentials",
	Long: `Save an Xtream Codes panel account.

The credentials are checked against the panel before the profile is
saved. Saving an existing name fails; delete the profile first.`,
	Example: `  elitewave profile add --name home --server http://panel.example.com:8080 \
    --username alice --password secret`,
	Args: cobra.NoArgs,
	RunE: runProfileAdd,
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <id-or-name>",
	Short: "Delete a saved profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileDelete,
}

var profileAddFlags struct {
	name     string
	server   string
	username string
	password string
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileListCmd, profileAddCmd, profileDeleteCmd)

	f := profileAddCmd.Flags()
	f.StringVar(&profileAddFlags.name, "name", "", "profile name")
	f.StringVar(&profileAddFlags.server, "server", "", "panel base URL")
	f.StringVar(&profileAddFlags.username, "username", "", "panel username")
	f.StringVar(&profileAddFlags.password, "password", "", "panel password")
	for _, name := range []string{"name", "server", "username", "password"} {
		_ = profileAddCmd.MarkFlagRequired(name)
	}
}

func runProfileList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	profiles, db, err := openProfiles(cmd.Context(), cfg, slog.Default())
	if err != nil {
		return err
	}
	defer db.Close()

	list, err := profiles.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No profiles saved. Add one with: elitewave profile add")
		return nil
	}

	now := time.Now()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tID\tSERVER\tUSERNAME\tLAST CONNECTED")
	for _, p := range list {
		var last time.Time
		if p.LastConnectedAt != nil {
			last = *p.LastConnectedAt
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			format.Truncate(p.Name, 24), p.ID, p.ServerURL, p.Username, format.RelativeTime(last, now))
	}
	return w.Flush()
}

func runProfileAdd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	profiles, db, err := openProfiles(cmd.Context(), cfg, slog.Default())
	if err != nil {
		return err
	}
	defer db.Close()

	profile := &models.Profile{
		Name:      profileAddFlags.name,
		ServerURL: profileAddFlags.server,
		Username:  profileAddFlags.username,
		Password:  profileAddFlags.password,
	}
	if err := profiles.Save(cmd.Context(), profile); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved profile %q (%s)\n", profile.Name, profile.ID)
	return nil
}

func runProfileDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	profiles, db, err := openProfiles(cmd.Context(), cfg, slog.Default())
	if err != nil {
		return err
	}
	defer db.Close()

	profile, err := profiles.Find(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := profiles.Delete(cmd.Context(), profile.ID); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted profile %q\n", profile.Name)
	return nil
}
