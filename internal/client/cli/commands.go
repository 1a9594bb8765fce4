package cli

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophdirectory/internal/client/models"
	"github.com/dmitrijs2005/gophdirectory/internal/client/workqueue"
	"github.com/dmitrijs2005/gophdirectory/internal/filex"
	"github.com/dmitrijs2005/gophdirectory/internal/netx"
)

const maxAvatarSize = 5 << 20

// await runs fn on the app's work queue and waits for its single result.
func await[T any](ctx context.Context, a *App, fn func(context.Context) (T, error)) (T, error) {
	return workqueue.Submit(a.queue, ctx, fn).Await(ctx)
}

// do is await for jobs without a result.
func do(ctx context.Context, a *App, fn func(context.Context) error) error {
	_, err := await(ctx, a, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func (a *App) showUser(ctx context.Context, resolve func(context.Context) (*models.User, error)) error {
	u, err := await(ctx, a, resolve)
	if err != nil {
		return err
	}
	printlnFn(formatUser(u))
	return nil
}

func (a *App) User(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("user <id>")
	}
	return a.showUser(ctx, func(ctx context.Context) (*models.User, error) {
		return a.recipients.GetUserByID(ctx, args[0])
	})
}

func (a *App) Username(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("username <name>")
	}
	name := strings.TrimPrefix(args[0], "@")
	return a.showUser(ctx, func(ctx context.Context) (*models.User, error) {
		return a.recipients.GetUserByUsername(ctx, name)
	})
}

func (a *App) Pay(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("pay <address>")
	}
	return a.showUser(ctx, func(ctx context.Context) (*models.User, error) {
		return a.recipients.GetUserByPaymentAddress(ctx, args[0])
	})
}

func (a *App) Group(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("group <id>")
	}
	g, err := await(ctx, a, func(ctx context.Context) (*models.Group, error) {
		return a.recipients.GetGroup(ctx, args[0])
	})
	if err != nil {
		return err
	}
	printlnFn(formatGroup(g))
	return nil
}

func (a *App) AddGroup(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("addgroup <id> <title> [members...]")
	}
	g := &models.Group{ID: args[0], Title: args[1], Members: append([]string{}, args[2:]...)}
	if err := do(ctx, a, func(ctx context.Context) error {
		return a.recipients.SaveGroup(ctx, g)
	}); err != nil {
		return err
	}
	printlnFn("Group saved.")
	return nil
}

func (a *App) printUsers(list []*models.User) {
	if len(list) == 0 {
		printlnFn("No matches.")
		return
	}
	for _, u := range list {
		printlnFn(formatUserLine(u))
	}
}

func (a *App) Search(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("search <query>")
	}
	list, err := await(ctx, a, func(ctx context.Context) ([]*models.User, error) {
		return a.recipients.SearchOffline(ctx, args[0])
	})
	if err != nil {
		return err
	}
	a.printUsers(list)
	return nil
}

func (a *App) SearchOnline(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("searchonline <query>")
	}
	list, err := await(ctx, a, func(ctx context.Context) ([]*models.User, error) {
		return a.recipients.SearchOnline(ctx, args[0])
	})
	if err != nil {
		return err
	}
	a.printUsers(list)
	return nil
}

func (a *App) Contacts(ctx context.Context, _ []string) error {
	list, err := await(ctx, a, a.recipients.ListContacts)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		printlnFn("No contacts.")
		return nil
	}
	for _, c := range list {
		printlnFn(fmt.Sprintf("%s  added %s", formatUserLine(&c.User), formatTime(c.AddedAt)))
	}
	return nil
}

// contactTarget resolves id so the stored contact carries a full profile.
func (a *App) contactTarget(ctx context.Context, id string) (*models.User, error) {
	return await(ctx, a, func(ctx context.Context) (*models.User, error) {
		return a.recipients.GetUserByID(ctx, id)
	})
}

func (a *App) AddContact(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("addcontact <id>")
	}
	u, err := a.contactTarget(ctx, args[0])
	if err != nil {
		return err
	}
	if err := do(ctx, a, func(ctx context.Context) error {
		return a.recipients.AddContact(ctx, u)
	}); err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("%s added to contacts.", u.DisplayName()))
	return nil
}

func (a *App) RemoveContact(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("rmcontact <id>")
	}
	u := &models.User{ToshiID: args[0]}
	removed, err := await(ctx, a, func(ctx context.Context) (bool, error) {
		ok, err := a.recipients.IsContact(ctx, u)
		if err != nil || !ok {
			return false, err
		}
		return true, a.recipients.RemoveContact(ctx, u)
	})
	if err != nil {
		return err
	}
	if !removed {
		printlnFn("Not a contact.")
		return nil
	}
	printlnFn("Contact removed.")
	return nil
}

func (a *App) Block(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("block <address>")
	}
	if err := do(ctx, a, func(ctx context.Context) error {
		return a.recipients.Block(ctx, args[0])
	}); err != nil {
		return err
	}
	printlnFn("Blocked.")
	return nil
}

func (a *App) Unblock(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("unblock <address>")
	}
	unblocked, err := await(ctx, a, func(ctx context.Context) (bool, error) {
		ok, err := a.recipients.IsBlocked(ctx, args[0])
		if err != nil || !ok {
			return false, err
		}
		return true, a.recipients.Unblock(ctx, args[0])
	})
	if err != nil {
		return err
	}
	if !unblocked {
		printlnFn("Not blocked.")
		return nil
	}
	printlnFn("Unblocked.")
	return nil
}

func (a *App) Blocked(ctx context.Context, _ []string) error {
	list, err := await(ctx, a, a.recipients.ListBlocked)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		printlnFn("Nobody is blocked.")
		return nil
	}
	for _, b := range list {
		printlnFn(fmt.Sprintf("%s  since %s", b.OwnerAddress, formatTime(b.BlockedAt)))
	}
	return nil
}

func (a *App) Report(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("report <address> <details...>")
	}
	r := &models.Report{UserAddress: args[0], Details: strings.Join(args[1:], " ")}
	err := do(ctx, a, func(ctx context.Context) error {
		return a.recipients.Report(ctx, r)
	})
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Report sent at %s.", formatTime(r.Timestamp)))
	return nil
}

func (a *App) Publish(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("publish <username> <payment_address> [name...]")
	}
	u := &models.User{
		Username:       strings.TrimPrefix(args[0], "@"),
		PaymentAddress: args[1],
		Name:           strings.Join(args[2:], " "),
	}
	published, err := await(ctx, a, func(ctx context.Context) (*models.User, error) {
		return a.client.PublishProfile(ctx, u)
	})
	if err != nil {
		return err
	}
	printlnFn(formatUser(published))
	return nil
}

func (a *App) Avatar(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usageError("avatar <id> <file>")
	}
	body, err := filex.ReadLimited(args[1], maxAvatarSize)
	if err != nil {
		return err
	}
	key, err := await(ctx, a, func(ctx context.Context) (string, error) {
		key, url, err := a.client.GetAvatarUploadURL(ctx, args[0])
		if err != nil {
			return "", err
		}
		if err := netx.UploadToPresignedURL(ctx, a.http, url, http.DetectContentType(body), body); err != nil {
			return "", err
		}
		return key, nil
	})
	if err != nil {
		return err
	}
	a.log.Info(ctx, "avatar uploaded", "id", args[0], "key", key)
	printlnFn("Avatar uploaded.")
	return nil
}

func (a *App) Clear(ctx context.Context, _ []string) error {
	if err := do(ctx, a, a.recipients.ClearAll); err != nil {
		return err
	}
	printlnFn("Cached profiles cleared.")
	return nil
}
