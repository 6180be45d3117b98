package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/gymbucket/gymbucket/internal/client"
	"github.com/gymbucket/gymbucket/internal/mcp"
	"github.com/gymbucket/gymbucket/internal/models"
)

func newLoginCmd(a *app) *cobra.Command {
	var email string
	var remember bool
	cmd := &cobra.Command{
		Use:   "login --email <addr>",
		Short: "Log in and store the session (password from GYMBUCKET_PASSWORD or prompt)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(email) == "" {
				return fmt.Errorf("--email is required")
			}
			if err := a.open(); err != nil {
				return err
			}
			pw, err := readPassword(cmd.ErrOrStderr(), "Password: ", "GYMBUCKET_PASSWORD")
			if err != nil {
				return err
			}
			res, err := a.session.API.Login(cmd.Context(), email, pw, remember)
			if err != nil {
				return err
			}
			if err := a.session.Save(res, remember); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s %s <%s>\n", res.User.FirstName, res.User.LastName, res.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().BoolVar(&remember, "remember", false, "keep the session across reboots")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the token and clear the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loggedIn(cmd.Context()); err != nil {
				if errors.Is(err, client.ErrNotLoggedIn) {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "not logged in")
					return nil
				}
				return err
			}
			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loggedIn(cmd.Context()); err != nil {
				return err
			}
			var u *models.User
			err := a.session.Do(cmd.Context(), func(ctx context.Context) error {
				var err error
				u, err = a.session.API.Me(ctx)
				return err
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s <%s>\nrole: %s\nverified: %t\n",
				u.FirstName, u.LastName, u.Email, u.Role, u.EmailVerified)
			return nil
		},
	}
}

func newRegisterCmd(a *app) *cobra.Command {
	var req client.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a trainer account (password from GYMBUCKET_PASSWORD or prompt)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			pw, err := readPassword(cmd.ErrOrStderr(), "Password: ", "GYMBUCKET_PASSWORD")
			if err != nil {
				return err
			}
			req.Password, req.ConfirmPassword = pw, pw
			u, err := a.session.API.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "account created for %s; check your inbox to verify the email address\n", u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "phone number (optional)")
	cmd.Flags().StringSliceVar(&req.Specializations, "specializations", nil, "specializations")
	cmd.Flags().BoolVar(&req.AcceptTerms, "accept-terms", false, "accept the terms of service")
	cmd.Flags().BoolVar(&req.AcceptNewsletter, "newsletter", false, "subscribe to the newsletter")
	return cmd
}

func newForgotPasswordCmd(a *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "forgot-password --email <addr>",
		Short: "Request a password reset link",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			if err := a.session.API.ForgotPassword(cmd.Context(), email); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "if the address is registered, a reset link is on its way")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func newCalendarCmd(a *app) *cobra.Command {
	cal := &cobra.Command{Use: "calendar", Short: "Month and week views"}

	var date string
	month := &cobra.Command{
		Use:   "month",
		Short: "Show the month grid",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loggedIn(cmd.Context()); err != nil {
				return err
			}
			return a.session.Do(cmd.Context(), func(ctx context.Context) error {
				g, err := a.session.API.Month(ctx, date)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), renderMonth(g))
				return nil
			})
		},
	}
	month.Flags().StringVar(&date, "date", "", "any date in the month (YYYY-MM-DD, default today)")

	week := &cobra.Command{
		Use:   "week",
		Short: "Show the Monday-first week",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loggedIn(cmd.Context()); err != nil {
				return err
			}
			return a.session.Do(cmd.Context(), func(ctx context.Context) error {
				w, err := a.session.API.Week(ctx, date)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), renderWeek(w))
				return nil
			})
		},
	}
	week.Flags().StringVar(&date, "date", "", "any date in the week (YYYY-MM-DD, default today)")

	cal.AddCommand(month, week)
	return cal
}

func newTrainingsCmd(a *app) *cobra.Command {
	trainings := &cobra.Command{Use: "trainings", Short: "Book and list trainings"}

	var q client.TrainingQuery
	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List trainings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loggedIn(cmd.Context()); err != nil {
				return err
			}
			q.Status = models.Status(status)
			return a.session.Do(cmd.Context(), func(ctx context.Context) error {
				ts, err := a.session.API.ListTrainings(ctx, q)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), renderTrainings(ts))
				return nil
			})
		},
	}
	list.Flags().StringVar(&q.From, "from", "", "first date (YYYY-MM-DD)")
	list.Flags().StringVar(&q.To, "to", "", "last date (YYYY-MM-DD)")
	list.Flags().StringVar(&q.Client, "client", "", "client name contains")
	list.Flags().StringVar(&status, "status", "", "confirmed|pending|cancelled")

	var in models.TrainingInput
	var inStatus string
	bindInput := func(c *cobra.Command) {
		c.Flags().StringVar(&in.Date, "date", "", "date (YYYY-MM-DD)")
		c.Flags().StringVar(&in.StartTime, "start", "", "start time (HH:MM)")
		c.Flags().IntVar(&in.Duration, "duration", 60, "duration in minutes")
		c.Flags().StringVar(&in.ClientName, "client", "", "client name")
		c.Flags().StringVar(&in.Location, "location", "", "location")
		c.Flags().StringVar(&in.Notes, "notes", "", "notes")
		c.Flags().StringVar(&inStatus, "status", string(models.StatusConfirmed), "confirmed|pending|cancelled")
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Book a training",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loggedIn(cmd.Context()); err != nil {
				return err
			}
			in.Status = models.Status(inStatus)
			return a.session.Do(cmd.Context(), func(ctx context.Context) error {
				t, err := a.session.API.CreateTraining(ctx, in)
				var apiErr *client.APIError
				if errors.As(err, &apiErr) && apiErr.Conflict != nil {
					return fmt.Errorf("time conflict with %s", trainingLine(*apiErr.Conflict))
				}
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "booked %s %s\n", t.Date, trainingLine(*t))
				return nil
			})
		},
	}
	bindInput(add)

	var exclude string
	check := &cobra.Command{
		Use:   "check",
		Short: "Validate a booking and look for conflicts without saving",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loggedIn(cmd.Context()); err != nil {
				return err
			}
			in.Status = models.Status(inStatus)
			var excludeID uuid.UUID
			if exclude != "" {
				id, err := uuid.Parse(exclude)
				if err != nil {
					return fmt.Errorf("--exclude: %w", err)
				}
				excludeID = id
			}
			return a.session.Do(cmd.Context(), func(ctx context.Context) error {
				res, err := a.session.API.CheckTraining(ctx, in, excludeID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if res.Valid {
					_, _ = fmt.Fprintf(out, "ok: %s-%s is free\n", in.StartTime, res.EndTime)
					return nil
				}
				for _, e := range res.Errors {
					_, _ = fmt.Fprintln(out, "✗", e)
				}
				if res.Conflict != nil {
					_, _ = fmt.Fprintln(out, "  conflicts with", trainingLine(*res.Conflict))
				}
				return nil
			})
		},
	}
	bindInput(check)
	check.Flags().StringVar(&exclude, "exclude", "", "training ID being edited")

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a training",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid training id: %w", err)
			}
			if err := a.loggedIn(cmd.Context()); err != nil {
				return err
			}
			err = a.session.Do(cmd.Context(), func(ctx context.Context) error {
				return a.session.API.DeleteTraining(ctx, id)
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "deleted", id)
			return nil
		},
	}

	trainings.AddCommand(list, add, check, rm)
	return trainings
}

func newPlansCmd(a *app) *cobra.Command {
	plansCmd := &cobra.Command{Use: "plans", Short: "Browse workout plans"}

	var search, category, difficulty, muscle string
	var mine bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List workout plans",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loggedIn(cmd.Context()); err != nil {
				return err
			}
			params := url.Values{}
			setParam(params, "search", search)
			setParam(params, "category", category)
			setParam(params, "difficulty", difficulty)
			setParam(params, "muscleGroup", muscle)
			if mine {
				params.Set("mine", strconv.FormatBool(mine))
			}
			return a.session.Do(cmd.Context(), func(ctx context.Context) error {
				ps, err := a.session.API.ListPlans(ctx, params)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), renderPlans(ps))
				return nil
			})
		},
	}
	list.Flags().StringVar(&search, "search", "", "name, description or tag contains")
	list.Flags().StringVar(&category, "category", "", "strength|cardio|flexibility|mixed")
	list.Flags().StringVar(&difficulty, "difficulty", "", "beginner|intermediate|advanced")
	list.Flags().StringVar(&muscle, "muscle-group", "", "target muscle group")
	list.Flags().BoolVar(&mine, "mine", false, "only plans you created")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a plan with its exercises",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid plan id: %w", err)
			}
			if err := a.loggedIn(cmd.Context()); err != nil {
				return err
			}
			return a.session.Do(cmd.Context(), func(ctx context.Context) error {
				p, err := a.session.API.GetPlan(ctx, id)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), renderPlan(p))
				return nil
			})
		},
	}

	plansCmd.AddCommand(list, show)
	return plansCmd
}

func newExercisesCmd(a *app) *cobra.Command {
	ex := &cobra.Command{Use: "exercises", Short: "Browse the exercise catalogue"}

	var search, muscle, equipment, difficulty string
	list := &cobra.Command{
		Use:   "list",
		Short: "List exercises",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loggedIn(cmd.Context()); err != nil {
				return err
			}
			params := url.Values{}
			setParam(params, "search", search)
			setParam(params, "muscleGroup", muscle)
			setParam(params, "equipment", equipment)
			setParam(params, "difficulty", difficulty)
			return a.session.Do(cmd.Context(), func(ctx context.Context) error {
				list, err := a.session.API.ListExercises(ctx, params)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), renderExercises(list))
				return nil
			})
		},
	}
	list.Flags().StringVar(&search, "search", "", "name or description contains")
	list.Flags().StringVar(&muscle, "muscle-group", "", "muscle group")
	list.Flags().StringVar(&equipment, "equipment", "", "equipment")
	list.Flags().StringVar(&difficulty, "difficulty", "", "beginner|intermediate|advanced")

	ex.AddCommand(list)
	return ex
}

func newMCPCmd(a *app) *cobra.Command {
	var tz string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the GymBucket MCP tools over stdio using the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			loc := time.Local
			if tz != "" {
				l, err := time.LoadLocation(tz)
				if err != nil {
					return fmt.Errorf("--timezone: %w", err)
				}
				loc = l
			}
			if err := a.loggedIn(cmd.Context()); err != nil {
				return err
			}
			// stdout carries the protocol
			log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
			srv := mcp.New(mcp.NewRemoteSource(a.session), Version, loc, log)
			log.Info("mcp stdio server starting", "server", a.serverURL)
			return mcpserver.ServeStdio(srv)
		},
	}
	cmd.Flags().StringVar(&tz, "timezone", "", "calendar time zone (default: local)")
	return cmd
}

func setParam(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}
