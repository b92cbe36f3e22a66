package verify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keshon/bvc/internal/command"
	"github.com/keshon/bvc/internal/repo/meta"
	"github.com/keshon/bvc/internal/snapshot"
	"github.com/keshon/bvc/internal/util"
)

func New(app *command.App) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that every referenced block is present and intact",
		Long: `Rehash every block referenced by a commit tree or by snapshot
metadata and report those that are missing or damaged.`,
		Args: cobra.NoArgs,
		RunE: app.Run(func(cmd *cobra.Command, args []string) error {
			r := app.Repo
			refs, err := r.ReferencedBlocks()
			if err != nil {
				return err
			}

			ids, err := r.Meta.ListCommitIDs()
			if err != nil {
				return err
			}
			for _, id := range ids {
				c, err := r.Meta.GetCommit(id)
				if err != nil {
					return err
				}
				mdID := c.Extra[snapshot.MetadataKey]
				if mdID == "" {
					continue
				}
				hashes, err := snapshot.Refs(r.Store.BlockCtx, mdID)
				if err != nil && !errors.Is(err, snapshot.ErrNotFound) {
					app.Log.WithField("commit", meta.ShortID(id)).Warn(err)
				}
				for _, h := range hashes {
					refs[h] = append(refs[h], id)
				}
			}

			bad := r.VerifyBlocks(util.SortedKeys(refs))
			for _, bc := range bad {
				users := util.SortedUnique(refs[bc.Hash])
				for i := range users {
					users[i] = meta.ShortID(users[i])
				}
				app.Printf("block %s is %s (used by %s)\n", bc.Hash, bc.Status, strings.Join(users, ", "))
			}
			if len(bad) > 0 {
				return fmt.Errorf("repository verification failed: %d of %d blocks missing or damaged", len(bad), len(refs))
			}
			app.Printf("%d blocks ok\n", len(refs))
			return nil
		}),
	}
}
