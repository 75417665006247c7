package main

import (
	"fmt"
	"io"
	"os"

	intdb "studio/internal/db"
	"studio/internal/domain"
	"studio/internal/domain/models"
	"studio/internal/reporting"
	"studio/internal/repositories"
	"studio/internal/services"
	"studio/internal/utils"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd, setupOwnerCmd, repairLinksCmd, exportCmd)

	setupOwnerCmd.Flags().StringP("password", "p", "", "Also create a login with this password")
	setupOwnerCmd.Flags().StringP("name", "n", "", "Display name for the new login")

	exportCmd.Flags().StringP("month", "m", "", "Month to export as yyyy-MM (default: current month)")
	exportCmd.Flags().Bool("owner", false, "Export the owner view, including totals")
	exportCmd.Flags().String("as", "", "Export the admin view of this staff email")
	exportCmd.Flags().StringP("format", "f", "csv", "Output format: csv or pdf")
	exportCmd.Flags().StringP("out", "o", "", "Write to this file instead of stdout")
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := open(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		if err := intdb.EnsureSchema(rt.ctx, rt.db); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
		return nil
	},
}

var setupOwnerCmd = &cobra.Command{
	Use:   "setup-owner EMAIL",
	Short: "Grant the owner role to a staff email",
	Long: `Grant the owner role to EMAIL without an acting user. Use it once to
bootstrap a fresh installation, or to recover when no owner can log in.
With --password a login is created for the email as well.`,
	Args: cobra.ExactArgs(1),
	RunE: runSetupOwner,
}

func runSetupOwner(cmd *cobra.Command, args []string) error {
	rt, err := open(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	roles := services.RoleService{Repo: repositories.UserRoleRepository{DB: rt.db}, DB: rt.db, RequestID: "studioctl"}
	if password, _ := cmd.Flags().GetString("password"); password != "" {
		name, _ := cmd.Flags().GetString("name")
		auth := services.AuthService{Users: repositories.UserRepository{DB: rt.db}, Roles: roles, RequestID: "studioctl"}
		if _, err := auth.Provision(rt.ctx, args[0], name, password); err != nil && !domain.IsConflict(err) {
			return err
		}
	}
	d, err := roles.SetupOwner(rt.ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", d.Email, d.Role)
	return nil
}

var repairLinksCmd = &cobra.Command{
	Use:   "repair-links",
	Short: "Make booking report flags agree with the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := open(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		res, err := rt.reports().RepairLinks(rt.ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "relinked=%d unlinked=%d\n", res.Relinked, res.Unlinked)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a month of the report as CSV or PDF",
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	month, _ := cmd.Flags().GetString("month")
	owner, _ := cmd.Flags().GetBool("owner")
	as, _ := cmd.Flags().GetString("as")
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")

	v, err := exportViewer(owner, as)
	if err != nil {
		return err
	}
	if format != "csv" && format != "pdf" {
		return fmt.Errorf("unknown format %q, want csv or pdf", format)
	}

	rt, err := open(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	if month == "" {
		month = utils.CurrentMonth(rt.env.Location())
	}
	f := reporting.Filter{Month: month}

	var w io.Writer = cmd.OutOrStdout()
	if out != "" {
		file, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		defer file.Close()
		w = file
	}

	reports := rt.reports()
	if format == "csv" {
		return reports.ExportCSV(rt.ctx, w, v, f)
	}
	docs := services.DocsService{Reports: reports, Prices: reports.Prices, RequestID: "studioctl"}
	pdf, _, err := docs.MonthlyReport(rt.ctx, v, f)
	if err != nil {
		return err
	}
	_, err = w.Write(pdf)
	return err
}

// exportViewer picks whose view of the report is exported.
func exportViewer(owner bool, as string) (reporting.Viewer, error) {
	switch {
	case owner && as != "":
		return reporting.Viewer{}, fmt.Errorf("--owner and --as are mutually exclusive")
	case owner:
		return reporting.Viewer{Owner: true}, nil
	case as != "":
		return reporting.Viewer{Email: models.NormalizeEmail(as)}, nil
	default:
		return reporting.Viewer{}, fmt.Errorf("choose --owner or --as EMAIL")
	}
}
