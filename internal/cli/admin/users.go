package admin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kutbudev/cardboard/internal/auth"
	"github.com/kutbudev/cardboard/internal/models"
	"github.com/kutbudev/cardboard/internal/repository"
)

var validate = validator.New()

type userInput struct {
	Email    string `validate:"required,email,max=255"`
	Name     string `validate:"max=255"`
	Password string `validate:"required,min=8"`
	Staff    bool
}

func newCreateUserCommand(a *app, staff bool) *cobra.Command {
	in := userInput{Staff: staff}

	use, short := "createuser", "Add a user account"
	if staff {
		use, short = "createsuperuser", "Add a staff account able to edit taxonomies"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd)
			if in.Email == "" {
				if err := p.ask("Email:", &in.Email); err != nil {
					return err
				}
			}
			if in.Password == "" {
				if err := p.askPassword(&in.Password); err != nil {
					return err
				}
			}

			u, err := createUser(cmd.Context(), repository.NewUsers(a.db.DB), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user #%d %s (staff: %t)\n", u.ID, u.Email, u.IsStaff)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "email address used to log in")
	cmd.Flags().StringVar(&in.Name, "name", "", "display name (default: the email)")
	if !staff {
		cmd.Flags().BoolVar(&in.Staff, "staff", false, "allow the user to edit taxonomies")
	}

	return cmd
}

func newSetPasswordCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "setpassword <email>",
		Short: "Replace the password of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			users := repository.NewUsers(a.db.DB)
			u, err := users.GetByEmail(cmd.Context(), auth.NormalizeEmail(args[0]))
			if err != nil {
				return fmt.Errorf("user %s: %w", args[0], err)
			}

			var password string
			if err := newPrompter(cmd).askPassword(&password); err != nil {
				return err
			}
			if err := validate.Var(password, "required,min=8"); err != nil {
				return errors.New("password must be at least 8 characters")
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			u.PasswordHash = hash
			if err := users.Save(cmd.Context(), u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password changed for %s\n", u.Email)
			return nil
		},
	}
}

func createUser(ctx context.Context, users *repository.Users, in userInput) (*models.User, error) {
	in.Email = auth.NormalizeEmail(in.Email)
	if err := validate.Struct(in); err != nil {
		return nil, inputError(err)
	}
	if in.Name == "" {
		in.Name = in.Email
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      in.Staff,
	}
	if err := users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func inputError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" is not a valid email address")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// prompter asks through survey on a terminal and reads plain lines
// otherwise, so the commands can be scripted.
type prompter struct {
	in          io.Reader
	lines       *bufio.Reader
	interactive bool
}

func newPrompter(cmd *cobra.Command) *prompter {
	in := cmd.InOrStdin()
	p := &prompter{in: in, lines: bufio.NewReader(in)}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.interactive = true
	}
	return p
}

func (p *prompter) ask(message string, dst *string) error {
	if p.interactive {
		return survey.AskOne(&survey.Input{Message: message}, dst, survey.WithValidator(survey.Required))
	}
	return p.readLine(dst)
}

func (p *prompter) askPassword(dst *string) error {
	if !p.interactive {
		return p.readLine(dst)
	}

	var password, again string
	if err := survey.AskOne(&survey.Password{Message: "Password:"}, &password, survey.WithValidator(survey.Required)); err != nil {
		return err
	}
	if err := survey.AskOne(&survey.Password{Message: "Password (again):"}, &again); err != nil {
		return err
	}
	if password != again {
		return errors.New("passwords do not match")
	}
	*dst = password
	return nil
}

func (p *prompter) readLine(dst *string) error {
	line, err := p.lines.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return fmt.Errorf("reading input: %w", err)
	}
	*dst = strings.TrimRight(line, "\r\n")
	return nil
}
