package main

import (
	"fmt"

	"github.com/eldoah/promo-hub/internal/application/command"
	"github.com/eldoah/promo-hub/internal/domain/admin"
	"github.com/eldoah/promo-hub/internal/infrastructure/persistence"
	"github.com/urfave/cli/v2"
)

func adminCommand() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "dashboard users",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "create an admin user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{
						Name:     "password",
						Usage:    "at least 6 characters",
						EnvVars:  []string{"PROMOCTL_ADMIN_PASSWORD"},
						Required: true,
					},
					&cli.StringFlag{Name: "name", Value: "Admin"},
					&cli.StringFlag{Name: "role", Value: string(admin.RoleAdmin), Usage: "admin or superadmin"},
				},
				Action: createAdmin,
			},
		},
	}
}

func createAdmin(c *cli.Context) error {
	role := admin.Role(c.String("role"))
	if !role.IsValid() {
		return fmt.Errorf("unknown role %q, want admin or superadmin", role)
	}

	return withStores(c, persistence.Options{}, func(e *env, st *persistence.Stores) error {
		user, err := command.NewCreateAdminHandler(st.Users, e.log).Handle(c.Context, command.CreateAdminCommand{
			Email:    c.String("email"),
			Password: c.String("password"),
			Name:     c.String("name"),
			Role:     role,
		})
		if err != nil {
			return err
		}

		okText.Fprintf(e.out, "created %s %s", user.Role, user.Email.String())
		dimText.Fprintf(e.out, " (id %s)\n", user.ID)
		return nil
	})
}
