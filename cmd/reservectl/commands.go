package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"table-reservation-service/internal/infrastructure/auth"
	"table-reservation-service/internal/interface/rest"
	"table-reservation-service/internal/usecase"
)

type cli struct {
	out        io.Writer
	api        *apiClient
	jsonOutput bool
}

func (a *cli) listCmd() *cobra.Command {
	var date, status string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List reservations ordered by arrival time",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if date != "" && status != "" {
				return errors.New("--date and --status cannot be combined")
			}

			path := ""
			switch {
			case date != "":
				path = "/date/" + date
			case status != "":
				path = "/status/" + status
			}

			list, err := a.api.list(cmd.Context(), path)
			if err != nil {
				return err
			}
			return a.printList(list)
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "Only reservations arriving on this UTC date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&status, "status", "s", "", "Only reservations in this status")
	cmd.Flags().BoolVarP(&a.jsonOutput, "json", "j", false, "JSON output")
	return cmd
}

func (a *cli) getCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <reservation id>",
		Short: "Show one reservation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.api.one(cmd.Context(), http.MethodGet, "/"+args[0], nil)
			if err != nil {
				return err
			}
			return a.printOne(res)
		},
	}
	cmd.Flags().BoolVarP(&a.jsonOutput, "json", "j", false, "JSON output")
	return cmd
}

// reservationFlags binds the editable fields. Only flags the user set are sent.
type reservationFlags struct {
	name, phone, email, arrival, status, requests string
	size                                          int
}

func (f *reservationFlags) bind(cmd *cobra.Command, withStatus bool) {
	cmd.Flags().StringVar(&f.name, "name", "", "Guest name")
	cmd.Flags().StringVar(&f.phone, "phone", "", "Contact phone")
	cmd.Flags().StringVar(&f.email, "email", "", "Contact email")
	cmd.Flags().StringVar(&f.arrival, "arrival", "", "Arrival time, RFC 3339 (2024-03-10T19:30:00Z)")
	cmd.Flags().IntVar(&f.size, "size", 0, "Table size (1-20)")
	cmd.Flags().StringVar(&f.requests, "requests", "", "Special requests")
	if withStatus {
		cmd.Flags().StringVar(&f.status, "status", "", "Status (staff only)")
	}
}

func (f *reservationFlags) body(cmd *cobra.Command) (map[string]interface{}, error) {
	changed := cmd.Flags().Changed
	body := map[string]interface{}{}

	if changed("name") {
		body["guestName"] = f.name
	}
	if changed("phone") || changed("email") {
		if !changed("phone") || !changed("email") {
			return nil, errors.New("--phone and --email must be given together")
		}
		body["contactInfo"] = map[string]string{"phone": f.phone, "email": f.email}
	}
	if changed("arrival") {
		body["arrivalTime"] = f.arrival
	}
	if changed("size") {
		body["tableSize"] = f.size
	}
	if changed("requests") {
		body["specialRequests"] = f.requests
	}
	if changed("status") {
		body["status"] = f.status
	}
	return body, nil
}

func (a *cli) createCmd() *cobra.Command {
	var flags reservationFlags

	cmd := &cobra.Command{
		Use:     "create",
		Aliases: []string{"add", "new"},
		Short:   "Create a reservation",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := flags.body(cmd)
			if err != nil {
				return err
			}
			res, err := a.api.one(cmd.Context(), http.MethodPost, "", body)
			if err != nil {
				return err
			}
			return a.printOne(res)
		},
	}

	flags.bind(cmd, false)
	for _, name := range []string{"name", "phone", "email", "arrival", "size"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (a *cli) updateCmd() *cobra.Command {
	var (
		flags reservationFlags
		staff bool
	)

	cmd := &cobra.Command{
		Use:   "update <reservation id>",
		Short: "Update a reservation",
		Long: "Update a reservation\n\nGuests may change " + strings.Join(usecase.GuestUpdatableFields(), ", ") +
			".\nUse --staff to change status or special requests.\n",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := flags.body(cmd)
			if err != nil {
				return err
			}
			if len(body) == 0 {
				return errors.New("nothing to update")
			}

			path := "/" + args[0]
			if staff {
				path = "/employee" + path
			}
			res, err := a.api.one(cmd.Context(), http.MethodPut, path, body)
			if err != nil {
				return err
			}
			return a.printOne(res)
		},
	}

	flags.bind(cmd, true)
	cmd.Flags().BoolVar(&staff, "staff", false, "Use the staff endpoint")
	return cmd
}

func (a *cli) cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "cancel <reservation id>",
		Aliases: []string{"rm"},
		Short:   "Cancel a reservation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.api.one(cmd.Context(), http.MethodDelete, "/"+args[0], nil)
			if err != nil {
				return err
			}
			return a.printOne(res)
		},
	}
}

func (a *cli) tokenCmd() *cobra.Command {
	var (
		secret, subject string
		ttl             time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a staff token for the staff endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := auth.IssueStaffToken(secret, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, token)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret (STAFF_JWT_SECRET of the server)")
	cmd.Flags().StringVar(&subject, "subject", "", "Staff member the token is issued to")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("secret")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func (a *cli) printOne(res *rest.ReservationResponse) error {
	if a.jsonOutput {
		return a.printJSON(res)
	}
	return a.printList([]rest.ReservationResponse{*res})
}

func (a *cli) printList(list []rest.ReservationResponse) error {
	if a.jsonOutput {
		return a.printJSON(list)
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tARRIVAL\tGUEST\tSIZE\tSTATUS\tPHONE\tEMAIL")
	for _, r := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			r.ID, r.ArrivalTime, r.GuestName, r.TableSize, r.Status, r.ContactInfo.Phone, r.ContactInfo.Email)
	}
	return tw.Flush()
}

func (a *cli) printJSON(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
