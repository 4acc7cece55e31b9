package main

import (
	"github.com/spf13/cobra"

	"go.klb.dev/clipq/internal/message"
)

func newCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage the categories items can be filed under",
	}
	cmd.AddCommand(
		newClientCmd("ls", "List categories", cobra.NoArgs,
			func(c *client, _ []string) error {
				resp, err := c.call(&message.Request{Op: message.OpCategories})
				if err != nil || c.emit(resp) {
					return err
				}
				printCategories(c.out, resp.Categories)
				return nil
			}),
		newCategoryAddCmd(),
		newClientCmd("rm ID", "Delete a category (items keep the dangling reference)", cobra.ExactArgs(1),
			func(c *client, args []string) error {
				ids, err := c.resolve(args, message.OpCategories)
				if err != nil {
					return err
				}
				_, err = c.call(&message.Request{Op: message.OpCategoryRemove, ID: ids[0]})
				return err
			}),
		newClientCmd("set ITEM [CATEGORY]", "File an item under a category; without CATEGORY the item is unfiled",
			cobra.RangeArgs(1, 2),
			func(c *client, args []string) error {
				ids, err := c.resolve(args[:1], itemSources...)
				if err != nil {
					return err
				}
				var categoryID string
				if len(args) == 2 {
					cats, err := c.resolve(args[1:], message.OpCategories)
					if err != nil {
						return err
					}
					categoryID = cats[0]
				}
				_, err = c.call(&message.Request{Op: message.OpSetCategory, ID: ids[0], CategoryID: categoryID})
				return err
			}),
	)
	return cmd
}

func newCategoryAddCmd() *cobra.Command {
	cmd := newClientCmd("add NAME", "Create a category", cobra.ExactArgs(1),
		func(c *client, args []string) error {
			resp, err := c.call(&message.Request{
				Op:    message.OpCategoryAdd,
				Name:  args[0],
				Color: c.v.GetString("color"),
			})
			if err != nil || c.emit(resp) {
				return err
			}
			c.printf("created %s (%s)\n", resp.Category.Name, shortID(resp.Category.ID))
			return nil
		})
	cmd.Flags().String("color", "", "color as #RRGGBB (default gray)")
	return cmd
}
