package commands

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/urfave/cli/v2"

	"github.com/kutbudev/cardboard/internal/api"
)

// NewTaxonomyCommand manages categories, colors and statuses.
func NewTaxonomyCommand() *cli.Command {
	kinds := make([]string, len(api.Kinds))
	for i, k := range api.Kinds {
		kinds[i] = string(k)
	}
	usage := strings.Join(kinds, "|")

	return &cli.Command{
		Name:    "taxonomy",
		Aliases: []string{"tax"},
		Usage:   "Manage categories, colors and statuses",
		Subcommands: []*cli.Command{
			{
				Name:      "list",
				Aliases:   []string{"ls"},
				Usage:     "List the entries of a taxonomy",
				ArgsUsage: "<" + usage + ">",
				Action: func(c *cli.Context) error {
					kind, err := api.ParseKind(c.Args().First())
					if err != nil {
						return err
					}
					client, err := newClient()
					if err != nil {
						return err
					}
					terms, err := client.ListTaxonomy(c.Context, kind)
					if err != nil {
						return err
					}
					if len(terms) == 0 {
						fmt.Printf("No %s yet.\n", kind)
						return nil
					}
					fmt.Println(headerStyle.Render(strings.ToUpper(string(kind))))
					for _, t := range terms {
						fmt.Printf("  %s %s\n", mutedStyle.Render(fmt.Sprintf("#%-4d", t.ID)), t.Name)
					}
					return nil
				},
			},
			{
				Name:      "create",
				Usage:     "Add an entry (staff only)",
				ArgsUsage: "<" + usage + "> <name>",
				Action: func(c *cli.Context) error {
					kind, err := api.ParseKind(c.Args().First())
					if err != nil {
						return err
					}
					name := strings.Join(c.Args().Tail(), " ")
					if strings.TrimSpace(name) == "" {
						return fmt.Errorf("name is required")
					}
					client, err := newClient()
					if err != nil {
						return err
					}
					term, err := client.CreateTaxonomy(c.Context, kind, name)
					if err != nil {
						return err
					}
					success("Created %s #%d '%s'", kind, term.ID, term.Name)
					return nil
				},
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Remove an entry and every card that uses it (staff only)",
				ArgsUsage: "<" + usage + "> <id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
				},
				Action: func(c *cli.Context) error {
					kind, err := api.ParseKind(c.Args().First())
					if err != nil {
						return err
					}
					id, err := parseID(c.Args().Get(1), string(kind))
					if err != nil {
						return err
					}
					if !c.Bool("yes") {
						ok := false
						prompt := &survey.Confirm{Message: fmt.Sprintf("Delete %s #%d and all of its cards?", kind, id)}
						if err := survey.AskOne(prompt, &ok); err != nil {
							return err
						}
						if !ok {
							return nil
						}
					}
					client, err := newClient()
					if err != nil {
						return err
					}
					if err := client.DeleteTaxonomy(c.Context, kind, id); err != nil {
						return err
					}
					success("Deleted %s #%d", kind, id)
					return nil
				},
			},
		},
	}
}
