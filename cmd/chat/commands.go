package main

import (
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/internal"
	"chat-sync/runtime"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
)

type usageError struct{ err error }

func (u usageError) Error() string { return u.err.Error() }
func (u usageError) Unwrap() error { return u.err }

func isUsage(err error) bool {
	var u usageError
	return stderrors.As(err, &u)
}

func parse(name string, flags *pflag.FlagSet, args []string) error {
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: chat %s [flags]\n", name)
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return usageError{err}
	}
	return nil
}

func credentialFlags(name string) (*pflag.FlagSet, *string, *string) {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	username := flags.StringP("username", "u", "", "account username")
	password := flags.StringP("password", "p", "", "account password (or CHAT_PASSWORD)")
	return flags, username, password
}

func passwordOrEnv(password string) string {
	if password != "" {
		return password
	}
	return os.Getenv("CHAT_PASSWORD")
}

func registerCmd(ctx context.Context, stack *internal.ClientStack, args []string) error {
	flags, username, password := credentialFlags("register")
	if err := parse("register", flags, args); err != nil {
		return err
	}
	credential, err := stack.Session.Register(ctx, *username, passwordOrEnv(*password))
	if err != nil {
		return describeAuth(err)
	}
	fmt.Println(color.Green.Sprintf("Registered and signed in as %s", credential.DisplayName))
	return nil
}

func loginCmd(ctx context.Context, stack *internal.ClientStack, args []string) error {
	flags, username, password := credentialFlags("login")
	if err := parse("login", flags, args); err != nil {
		return err
	}
	credential, err := stack.Session.Login(ctx, *username, passwordOrEnv(*password))
	if err != nil {
		return describeAuth(err)
	}
	fmt.Println(color.Green.Sprintf("Signed in as %s", credential.DisplayName))
	return nil
}

func logoutCmd(_ context.Context, stack *internal.ClientStack, _ []string) error {
	stack.Session.Logout()
	fmt.Println("Signed out")
	return nil
}

func profileCmd(ctx context.Context, stack *internal.ClientStack, _ []string) error {
	profile, err := stack.Controller.Profile(ctx)
	if err != nil {
		return describeFeed(err)
	}
	fmt.Printf("id:       %d\nusername: %s\njoined:   %s\n", profile.ID, profile.Username, profile.CreatedAt.Local().Format("2006-01-02 15:04"))
	return nil
}

func messagesCmd(ctx context.Context, stack *internal.ClientStack, args []string) error {
	flags := pflag.NewFlagSet("messages", pflag.ContinueOnError)
	last := flags.IntP("last", "n", 0, "only print the last n messages")
	if err := parse("messages", flags, args); err != nil {
		return err
	}
	if err := stack.Controller.LoadInitial(ctx); err != nil {
		return describeFeed(err)
	}
	messages := stack.Controller.Snapshot()
	if *last > 0 && *last < len(messages) {
		messages = messages[len(messages)-*last:]
	}
	printTable(messages, ownName(stack))
	fmt.Printf("%d of %d messages\n", len(messages), stack.Feed.Total())
	return nil
}

func sendCmd(ctx context.Context, stack *internal.ClientStack, args []string) error {
	flags := pflag.NewFlagSet("send", pflag.ContinueOnError)
	if err := parse("send", flags, args); err != nil {
		return err
	}
	text := strings.Join(flags.Args(), " ")
	if text == "" {
		return usageError{fmt.Errorf("nothing to send")}
	}
	message, err := stack.Controller.Submit(ctx, text)
	if err != nil {
		return describeFeed(err)
	}
	fmt.Printf("Sent #%d at %s\n", message.ID, message.CreatedAt.Local().Format("15:04"))
	return nil
}

// watchCmd prints every message once, in order, as periodic refreshes bring
// them in.
func watchCmd(ctx context.Context, stack *internal.ClientStack, args []string) error {
	flags := pflag.NewFlagSet("watch", pflag.ContinueOnError)
	if err := parse("watch", flags, args); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	own := ownName(stack)
	printed := make(map[int64]bool)
	signedOut := make(chan struct{}, 1)
	updates := make(chan struct{}, 1)
	unsubscribe := stack.Controller.Subscribe(func(e runtime.Event) {
		switch e.Type {
		case runtime.EventFeedUpdated:
			select {
			case updates <- struct{}{}:
			default:
			}
		case runtime.EventSignedOut:
			select {
			case signedOut <- struct{}{}:
			default:
			}
		case runtime.EventFailed:
			fmt.Fprintln(os.Stderr, color.Yellow.Sprintf("refresh failed: %v", e.Err))
		}
	})
	defer unsubscribe()

	if err := stack.Controller.LoadInitial(ctx); err != nil {
		return describeFeed(err)
	}
	printNew(stack.Controller.Snapshot(), printed, own)

	sup := stack.Poller()
	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()
	defer func() {
		sup.Stop()
		<-done
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-signedOut:
			return fmt.Errorf("session expired, sign in again")
		case <-updates:
			printNew(stack.Controller.Snapshot(), printed, own)
		}
	}
}

func printNew(messages []domain.Message, printed map[int64]bool, own string) {
	for _, m := range messages {
		if printed[m.ID] {
			continue
		}
		printed[m.ID] = true
		author := color.Cyan.Sprint(m.Author)
		if m.Author == own {
			author = color.Green.Sprint(m.Author)
		}
		fmt.Printf("%s %s: %s\n", color.Gray.Sprint(m.CreatedAt.Local().Format("15:04")), author, m.Text)
	}
}

func printTable(messages []domain.Message, own string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Time", "Author", "Text"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetCenterSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")
	for _, m := range messages {
		author := m.Author
		if author == own {
			author += " (you)"
		}
		table.Append([]string{fmt.Sprint(m.ID), m.CreatedAt.Local().Format("15:04"), author, m.Text})
	}
	table.Render()
}

func ownName(stack *internal.ClientStack) string {
	credential, _ := stack.Session.CurrentCredential()
	return credential.DisplayName
}

func describeAuth(err error) error {
	var authErr *errors.AuthError
	if !stderrors.As(err, &authErr) || len(authErr.FieldMessages) == 0 {
		return err
	}
	fields := lo.Keys(authErr.FieldMessages)
	sort.Strings(fields)
	lines := lo.Map(fields, func(f string, _ int) string {
		return fmt.Sprintf("  %s: %s", f, strings.Join(authErr.FieldMessages[f], " "))
	})
	return fmt.Errorf("%s\n%s", authErr.Message, strings.Join(lines, "\n"))
}

func describeFeed(err error) error {
	switch {
	case stderrors.Is(err, errors.ErrNotAuthenticated), errors.IsUnauthorized(err):
		return fmt.Errorf("not signed in, run `chat login` first")
	case stderrors.Is(err, errors.ErrTransient):
		return fmt.Errorf("backend unreachable, try again: %w", err)
	default:
		return err
	}
}
