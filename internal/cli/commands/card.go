package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v2"

	"github.com/kutbudev/cardboard/internal/api"
	"github.com/kutbudev/cardboard/internal/models"
)

// NewCardCommand creates all subcommands for the 'card' command group.
func NewCardCommand() *cli.Command {
	return &cli.Command{
		Name:    "card",
		Aliases: []string{"c"},
		Usage:   "Manage your cards",
		Subcommands: []*cli.Command{
			cardListCmd(),
			cardShowCmd(),
			cardCreateCmd(),
			cardUpdateCmd(),
			cardDeleteCmd(),
		},
	}
}

func cardListCmd() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List your cards",
		Flags: []cli.Flag{
			&cli.UintFlag{Name: "category", Usage: "filter by category ID"},
			&cli.UintFlag{Name: "status", Aliases: []string{"s"}, Usage: "filter by status ID"},
			&cli.UintFlag{Name: "color", Usage: "filter by color ID"},
			&cli.StringFlag{Name: "date", Usage: "filter by creation date (YYYY-MM-DD)"},
			&cli.IntFlag{Name: "page", Usage: "page number"},
			&cli.IntFlag{Name: "page-size", Usage: "cards per page"},
			&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "load every page"},
		},
		Action: func(c *cli.Context) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			q := api.CardQuery{
				Category: c.Uint("category"),
				Status:   c.Uint("status"),
				Color:    c.Uint("color"),
				Search:   c.String("date"),
				Page:     c.Int("page"),
				PageSize: c.Int("page-size"),
			}

			var (
				cards []models.Card
				total int64
			)
			if c.Bool("all") {
				cards, err = client.ListAllCards(c.Context, q)
				total = int64(len(cards))
			} else {
				page, listErr := client.ListCards(c.Context, q)
				if listErr == nil {
					cards, total = page.Results, page.Count
				}
				err = listErr
			}
			if err != nil {
				return err
			}

			if len(cards) == 0 {
				fmt.Println("No cards found. Use 'cardboard card create' to add one.")
				return nil
			}

			lookup, err := termNames(c.Context, client)
			if err != nil {
				return err
			}
			fmt.Println(renderCardTable(cards, lookup, terminalWidth()))
			fmt.Println(mutedStyle.Render(fmt.Sprintf("%d of %d cards", len(cards), total)))
			return nil
		},
	}
}

func cardShowCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a card with its text rendered",
		ArgsUsage: "[card-id]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "copy", Usage: "copy the card text to the clipboard"},
			&cli.BoolFlag{Name: "raw", Usage: "print the text without rendering"},
		},
		Action: func(c *cli.Context) error {
			id, err := idArg(c, "card")
			if err != nil {
				return err
			}
			client, err := newClient()
			if err != nil {
				return err
			}
			card, err := client.GetCard(c.Context, id)
			if err != nil {
				return err
			}
			lookup, err := termNames(c.Context, client)
			if err != nil {
				return err
			}

			fmt.Println(headerStyle.Render(fmt.Sprintf("#%d %s", card.ID, card.Title)))
			fmt.Printf("Created:  %s\n", card.CreationDate.Local().Format("2006-01-02 15:04"))
			fmt.Printf("Category: %s\n", lookup.name(api.Categories, card.CategoryID))
			fmt.Printf("Status:   %s\n", lookup.name(api.Statuses, card.StatusID))
			fmt.Printf("Color:    %s\n", lookup.name(api.Colors, card.ColorID))
			fmt.Println()

			if c.Bool("raw") {
				fmt.Println(card.Text)
			} else {
				out, err := renderMarkdown(card.Text, terminalWidth())
				if err != nil {
					return err
				}
				fmt.Print(out)
			}

			if c.Bool("copy") {
				if err := clipboard.WriteAll(card.Text); err != nil {
					return fmt.Errorf("could not copy text: %w", err)
				}
				fmt.Println(mutedStyle.Render("Text copied to clipboard."))
			}
			return nil
		},
	}
}

func cardCreateCmd() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a card, prompting for anything not given",
		ArgsUsage: "[title]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "card text (markdown)"},
			&cli.UintFlag{Name: "category", Usage: "category ID"},
			&cli.UintFlag{Name: "status", Aliases: []string{"s"}, Usage: "status ID"},
			&cli.UintFlag{Name: "color", Usage: "color ID"},
			&cli.TimestampFlag{Name: "date", Layout: "2006-01-02", Usage: "creation date (YYYY-MM-DD)"},
		},
		Action: func(c *cli.Context) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			in := api.CardInput{
				Title:    c.Args().First(),
				Text:     c.String("text"),
				Category: c.Uint("category"),
				Status:   c.Uint("status"),
				Color:    c.Uint("color"),
			}
			if ts := c.Timestamp("date"); ts != nil {
				in.CreationDate = ts
			}

			if in.Title == "" {
				if err := survey.AskOne(&survey.Input{Message: "Title:"}, &in.Title, survey.WithValidator(survey.Required)); err != nil {
					return err
				}
			}
			if in.Text == "" {
				if err := survey.AskOne(&survey.Multiline{Message: "Text:"}, &in.Text, survey.WithValidator(survey.Required)); err != nil {
					return err
				}
			}
			for _, pick := range []struct {
				kind api.Kind
				dst  *uint
			}{
				{api.Categories, &in.Category},
				{api.Statuses, &in.Status},
				{api.Colors, &in.Color},
			} {
				if *pick.dst != 0 {
					continue
				}
				id, err := selectTerm(c.Context, client, pick.kind)
				if err != nil {
					return err
				}
				*pick.dst = id
			}

			card, err := client.CreateCard(c.Context, in)
			if err != nil {
				return err
			}
			success("Card #%d '%s' created", card.ID, card.Title)
			return nil
		},
	}
}

func cardUpdateCmd() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Change fields of a card",
		ArgsUsage: "[card-id]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Usage: "new title"},
			&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "new text"},
			&cli.UintFlag{Name: "category", Usage: "new category ID"},
			&cli.UintFlag{Name: "status", Aliases: []string{"s"}, Usage: "new status ID"},
			&cli.UintFlag{Name: "color", Usage: "new color ID"},
		},
		Action: func(c *cli.Context) error {
			id, err := idArg(c, "card")
			if err != nil {
				return err
			}

			data := map[string]interface{}{}
			for _, name := range []string{"title", "text"} {
				if c.IsSet(name) {
					data[name] = c.String(name)
				}
			}
			for _, name := range []string{"category", "status", "color"} {
				if c.IsSet(name) {
					data[name] = c.Uint(name)
				}
			}
			if len(data) == 0 {
				return fmt.Errorf("nothing to update, pass at least one of --title, --text, --category, --status or --color")
			}

			client, err := newClient()
			if err != nil {
				return err
			}
			card, err := client.UpdateCard(c.Context, id, data)
			if err != nil {
				return err
			}
			success("Card #%d updated", card.ID)
			return nil
		},
	}
}

func cardDeleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete a card",
		ArgsUsage: "[card-id]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
		},
		Action: func(c *cli.Context) error {
			id, err := idArg(c, "card")
			if err != nil {
				return err
			}

			if !c.Bool("yes") {
				ok := false
				if err := survey.AskOne(&survey.Confirm{Message: fmt.Sprintf("Delete card #%d?", id)}, &ok); err != nil {
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
			if err := client.DeleteCard(c.Context, id); err != nil {
				return err
			}
			success("Card #%d deleted", id)
			return nil
		},
	}
}

// names maps taxonomy identifiers to names, per kind.
type names map[api.Kind]map[uint]string

func (n names) name(kind api.Kind, id uint) string {
	if s, ok := n[kind][id]; ok {
		return s
	}
	return "#" + strconv.FormatUint(uint64(id), 10)
}

func termNames(ctx context.Context, client *api.Client) (names, error) {
	out := names{}
	for _, kind := range api.Kinds {
		terms, err := client.ListTaxonomy(ctx, kind)
		if err != nil {
			return nil, err
		}
		out[kind] = make(map[uint]string, len(terms))
		for _, t := range terms {
			out[kind][t.ID] = t.Name
		}
	}
	return out, nil
}

func selectTerm(ctx context.Context, client *api.Client, kind api.Kind) (uint, error) {
	terms, err := client.ListTaxonomy(ctx, kind)
	if err != nil {
		return 0, err
	}
	if len(terms) == 0 {
		return 0, fmt.Errorf("no %s exist yet, ask a staff member to create one", kind)
	}

	options := make([]string, len(terms))
	for i, t := range terms {
		options[i] = fmt.Sprintf("%s (#%d)", t.Name, t.ID)
	}

	var choice int
	if err := survey.AskOne(&survey.Select{Message: string(kind) + ":", Options: options}, &choice); err != nil {
		return 0, err
	}
	return terms[choice].ID, nil
}

func renderCardTable(cards []models.Card, n names, width int) string {
	rows := make([][]string, 0, len(cards))
	for _, card := range cards {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(card.ID), 10),
			truncateString(card.Title, 40),
			n.name(api.Statuses, card.StatusID),
			n.name(api.Categories, card.CategoryID),
			n.name(api.Colors, card.ColorID),
			card.CreationDate.Local().Format(time.DateOnly),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers("ID", "TITLE", "STATUS", "CATEGORY", "COLOR", "CREATED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	if width > 0 && width < 120 {
		t = t.Width(width)
	}
	return t.String()
}

func renderMarkdown(text string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(min(width, 100)),
	)
	if err != nil {
		return "", err
	}
	return r.Render(text)
}
