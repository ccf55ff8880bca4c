package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/spotlight/backend/internal/app"
	"github.com/anonto42/spotlight/backend/internal/models"
	"github.com/anonto42/spotlight/backend/internal/services"
	"github.com/anonto42/spotlight/backend/pkg/storage"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"
)

// SeedOptions controls how much fake data is generated
type SeedOptions struct {
	Users          int
	Posts          int
	FollowsPerUser int
	Seed           int64
}

// SeedResult counts what was created
type SeedResult struct {
	Users   int `json:"users"`
	Posts   int `json:"posts"`
	Follows int `json:"follows"`
}

// NewSeedCommand creates the seed command
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := SeedOptions{}
	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Generate fake users, posts and follows for development",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Seed == 0 {
				opts.Seed = time.Now().UnixNano()
			}
			return withApp(cmd.Context(), rootOpts, func(a *app.App) error {
				res, err := Seed(cmd.Context(), a.Services, opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users, %d posts, %d follows\n", res.Users, res.Posts, res.Follows)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&opts.Users, "users", 20, "number of users")
	cmd.Flags().IntVar(&opts.Posts, "posts", 50, "number of posts")
	cmd.Flags().IntVar(&opts.FollowsPerUser, "follows", 5, "follows per user")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed (0 picks one)")
	return cmd
}

// Seed creates users through the identity path, then posts and follows
// through the services so counters and notifications stay consistent
func Seed(ctx context.Context, svc *services.Registry, opts SeedOptions) (SeedResult, error) {
	var res SeedResult
	if opts.Users < 1 {
		return res, fmt.Errorf("seed needs at least one user")
	}
	faker := gofakeit.New(opts.Seed)

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		first, last := faker.FirstName(), faker.LastName()
		u, created, err := svc.Users.EnsureUser(ctx, models.IdentityProfile{
			ProviderUID: "seed_" + faker.UUID(),
			Email:       fmt.Sprintf("%s.%s.%d@%s", first, last, i, faker.DomainName()),
			FullName:    first + " " + last,
			ImageURL:    faker.ImageURL(200, 200),
		})
		if err != nil {
			return res, fmt.Errorf("seed user: %w", err)
		}
		bio := faker.Sentence(8)
		if _, err := svc.Users.UpdateProfile(ctx, u.ID, models.UpdateProfileRequest{Bio: &bio}); err != nil {
			return res, err
		}
		users = append(users, u)
		if created {
			res.Users++
		}
	}

	for i := 0; i < opts.Posts; i++ {
		author := users[faker.Number(0, len(users)-1)]
		_, err := svc.Posts.CreatePost(ctx, author.ID, models.CreatePostRequest{
			StorageID: storage.NewUploadKey(author.ID),
			Caption:   faker.Sentence(faker.Number(3, 12)),
		})
		if err != nil {
			return res, fmt.Errorf("seed post: %w", err)
		}
		res.Posts++
	}

	for _, u := range users {
		want := min(opts.FollowsPerUser, len(users)-1)
		order := make([]int, len(users))
		for i := range order {
			order[i] = i
		}
		faker.ShuffleInts(order)
		for _, idx := range order {
			if want == 0 {
				break
			}
			target := users[idx]
			if target.ID == u.ID {
				continue
			}
			out, err := svc.Graph.ToggleFollow(ctx, u.ID, target.ID)
			if err != nil {
				return res, fmt.Errorf("seed follow: %w", err)
			}
			if out.Following {
				res.Follows++
			}
			want--
		}
	}
	return res, nil
}
