package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/campus-it/helpdesk/internal/service"
)

type staffFlags struct {
	firstName  string
	lastName   string
	email      string
	password   string
	department string
}

func (f *staffFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.firstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&f.lastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&f.email, "email", "", "Login email")
	cmd.Flags().StringVar(&f.password, "password", "", "Password (prompted when omitted)")
	cmd.Flags().StringVar(&f.department, "department", "", "Department")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("last-name")
	_ = cmd.MarkFlagRequired("email")
}

func (f *staffFlags) input() (service.StaffInput, error) {
	password, err := readPassword(f.password)
	if err != nil {
		return service.StaffInput{}, err
	}
	return service.StaffInput{
		FirstName:  f.firstName,
		LastName:   f.lastName,
		Email:      f.email,
		Password:   password,
		Department: f.department,
	}, nil
}

func newCreateSystemManagerCommand() *cobra.Command {
	var (
		flags         staffFlags
		jobTitle      string
		departments   []string
		technicianIDs []string
	)
	cmd := &cobra.Command{
		Use:   "create-system-manager",
		Short: "Create a system manager account",
		Long:  `Create a staff account with the SYSTEM_MANAGER role and its manager profile.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input, err := flags.input()
			if err != nil {
				return err
			}
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			staff, err := rt.staffService().RegisterSystemManager(cmd.Context(), service.SystemManagerInput{
				StaffInput:    input,
				JobTitle:      jobTitle,
				Departments:   departments,
				TechnicianIDs: technicianIDs,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created system manager %s (%s)\n", staff.Email, staff.ID)
			return nil
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVar(&jobTitle, "job-title", "", "Job title")
	cmd.Flags().StringSliceVar(&departments, "department-managed", nil, "Managed department (repeatable)")
	cmd.Flags().StringSliceVar(&technicianIDs, "technician", nil, "Managed technician ID (repeatable)")
	return cmd
}

func newCreateTechnicianCommand() *cobra.Command {
	var flags staffFlags
	cmd := &cobra.Command{
		Use:   "create-technician",
		Short: "Create a technician account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			input, err := flags.input()
			if err != nil {
				return err
			}
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			staff, err := rt.staffService().RegisterTechnician(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created technician %s (%s)\n", staff.Email, staff.ID)
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}
