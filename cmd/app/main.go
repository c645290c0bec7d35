package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/AlphaSNetwork/AlphaSNetwork/internal/application"
	"github.com/AlphaSNetwork/AlphaSNetwork/internal/domain"
	"github.com/urfave/cli/v3"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "alphasocial",
		Usage: "Social content service with ledger mirroring",
		Commands: []*cli.Command{
			serverCommand(),
			configCommand(),
			contentCommand(),
			commentsCommand(),
			socialCommand(),
			messagesCommand(),
			mirrorCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		log.Fatal(err)
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "output raw JSON"}
}

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "limit"},
		&cli.IntFlag{Name: "offset"},
		jsonFlag(),
	}
}

func pageFrom(c *cli.Command) pageOpts {
	return pageOpts{Limit: int(c.Int("limit")), Offset: int(c.Int("offset"))}
}

func argID(c *cli.Command, what string) (uint, error) {
	raw := strings.TrimSpace(c.Args().First())
	if raw == "" {
		return 0, fmt.Errorf("%s is required", what)
	}
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", what)
	}
	return uint(parsed), nil
}

func argUser(c *cli.Command, pos int) (string, error) {
	v := strings.TrimSpace(c.Args().Get(pos))
	if v == "" {
		return "", fmt.Errorf("user id argument %d is required", pos+1)
	}
	return v, nil
}

// remote loads the CLI config and runs fn against it, printing the result
// as JSON when --json is set.
func remote[T any](fn func(ctx context.Context, cfg cliConfig, out *T) error, render func(T)) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		var out T
		if err := fn(ctx, cfg, &out); err != nil {
			return err
		}
		if c.Bool("json") {
			return printJSON(out)
		}
		render(out)
		return nil
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Client transport settings",
		Commands: []*cli.Command{
			{
				Name:  "set",
				Usage: "Store transport settings",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "transport", Usage: "uds or http"},
					&cli.StringFlag{Name: "server", Usage: "HTTP API base URL"},
					&cli.StringFlag{Name: "socket", Usage: "JSON-RPC unix socket path"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					if c.IsSet("transport") {
						t := c.String("transport")
						if t != "uds" && t != "http" {
							return fmt.Errorf("transport must be uds or http, got %q", t)
						}
						cfg.Transport = t
					}
					if c.IsSet("server") {
						cfg.Server = c.String("server")
					}
					if c.IsSet("socket") {
						cfg.Socket = c.String("socket")
					}
					return saveConfig(cfg)
				},
			},
			{
				Name:  "show",
				Usage: "Print transport settings",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					printKV([][2]string{{"transport", cfg.Transport}, {"server", cfg.Server}, {"socket", cfg.Socket}})
					return nil
				},
			},
		},
	}
}

func contentCommand() *cli.Command {
	return &cli.Command{
		Name:  "content",
		Usage: "Content commands",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Publish content",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "author", Required: true},
					&cli.StringFlag{Name: "type", Value: "text", Usage: "text, image, video or audio"},
					&cli.StringFlag{Name: "title"},
					&cli.StringFlag{Name: "description"},
					&cli.StringFlag{Name: "payload", Required: true},
					&cli.StringSliceFlag{Name: "tag"},
					&cli.BoolFlag{Name: "private"},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					in := application.CreateContentInput{
						AuthorID:    c.String("author"),
						Type:        domain.ContentType(c.String("type")),
						Title:       c.String("title"),
						Description: c.String("description"),
						Payload:     c.String("payload"),
						Tags:        c.StringSlice("tag"),
						Visibility:  domain.VisibilityPublic,
					}
					if c.Bool("private") {
						in.Visibility = domain.VisibilityPrivate
					}
					return remote(func(ctx context.Context, cfg cliConfig, out *mirroredResult[domain.Content]) error {
						return doContentCreate(ctx, cfg, in, out)
					}, func(out mirroredResult[domain.Content]) {
						printContent(out.Value)
						printMirror(out.Mirror)
					})(ctx, c)
				},
			},
			{
				Name:      "get",
				Usage:     "Show content (counts as a view)",
				ArgsUsage: "CONTENT_ID",
				Flags:     []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := argID(c, "content id")
					if err != nil {
						return err
					}
					return remote(func(ctx context.Context, cfg cliConfig, out *domain.Content) error {
						return doContentGet(ctx, cfg, id, out)
					}, printContent)(ctx, c)
				},
			},
			{
				Name:  "list",
				Usage: "List public content",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "author"},
					&cli.StringFlag{Name: "search"},
					&cli.StringFlag{Name: "type"},
				}, pageFlags()...),
				Action: func(ctx context.Context, c *cli.Command) error {
					return remote(func(ctx context.Context, cfg cliConfig, out *pagedResult[domain.Content]) error {
						return doContentList(ctx, cfg, c.String("author"), c.String("search"), c.String("type"), pageFrom(c), out)
					}, func(out pagedResult[domain.Content]) {
						printContents(out.Items)
						printPageInfo(out.Pagination)
					})(ctx, c)
				},
			},
			{
				Name:      "delete",
				Usage:     "Soft-delete content",
				ArgsUsage: "CONTENT_ID",
				Flags:     []cli.Flag{&cli.StringFlag{Name: "author", Required: true}},
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := argID(c, "content id")
					if err != nil {
						return err
					}
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					if err := doContentDelete(ctx, cfg, id, c.String("author")); err != nil {
						return err
					}
					fmt.Printf("content %d deleted\n", id)
					return nil
				},
			},
			{
				Name:      "like",
				Usage:     "Toggle a like on content or a comment",
				ArgsUsage: "TARGET_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Required: true},
					&cli.BoolFlag{Name: "comment", Usage: "target is a comment"},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := argID(c, "target id")
					if err != nil {
						return err
					}
					target := string(domain.TargetContent)
					if c.Bool("comment") {
						target = string(domain.TargetComment)
					}
					return remote(func(ctx context.Context, cfg cliConfig, out *mirroredResult[application.LikeState]) error {
						return doLike(ctx, cfg, target, id, c.String("user"), out)
					}, func(out mirroredResult[application.LikeState]) {
						printKV([][2]string{{"liked", strconv.FormatBool(out.Value.Liked)}, {"likes", formatCount(out.Value.Likes)}})
						if out.Value.Liked {
							printMirror(out.Mirror)
						}
					})(ctx, c)
				},
			},
			{
				Name:      "share",
				Usage:     "Record a share",
				ArgsUsage: "CONTENT_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Required: true},
					&cli.StringFlag{Name: "platform"},
					&cli.StringFlag{Name: "message"},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := argID(c, "content id")
					if err != nil {
						return err
					}
					return remote(func(ctx context.Context, cfg cliConfig, out *domain.Share) error {
						return doShare(ctx, cfg, id, c.String("user"), c.String("platform"), c.String("message"), out)
					}, func(out domain.Share) {
						printKV([][2]string{{"id", uintToString(out.ID)}, {"content", uintToString(out.ContentID)}, {"platform", formatMaybeString(out.Platform)}})
					})(ctx, c)
				},
			},
			{
				Name:  "trending",
				Usage: "Most liked public content",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "range", Value: "24h", Usage: "24h, 7d or 30d"},
					&cli.IntFlag{Name: "limit"},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return remote(func(ctx context.Context, cfg cliConfig, out *pagedResult[domain.Content]) error {
						return doTrending(ctx, cfg, c.String("range"), int(c.Int("limit")), out)
					}, func(out pagedResult[domain.Content]) {
						printContents(out.Items)
					})(ctx, c)
				},
			},
			{
				Name:  "feed",
				Usage: "Feed for a user",
				Flags: append([]cli.Flag{&cli.StringFlag{Name: "user", Required: true}}, pageFlags()...),
				Action: func(ctx context.Context, c *cli.Command) error {
					return remote(func(ctx context.Context, cfg cliConfig, out *pagedResult[domain.Content]) error {
						return doFeed(ctx, cfg, c.String("user"), pageFrom(c), out)
					}, func(out pagedResult[domain.Content]) {
						printContents(out.Items)
						printPageInfo(out.Pagination)
					})(ctx, c)
				},
			},
			{
				Name:  "stats",
				Usage: "Platform-wide content totals",
				Flags: []cli.Flag{jsonFlag()},
				Action: remote(func(ctx context.Context, cfg cliConfig, out *domain.ContentStats) error {
					return doContentStats(ctx, cfg, out)
				}, func(out domain.ContentStats) {
					printKV([][2]string{
						{"contents", formatCount(out.TotalContents)},
						{"comments", formatCount(out.TotalComments)},
						{"likes", formatCount(out.TotalLikes)},
						{"shares", formatCount(out.TotalShares)},
						{"today", formatCount(out.TodayContents)},
					})
				}),
			},
		},
	}
}

func commentsCommand() *cli.Command {
	return &cli.Command{
		Name:  "comments",
		Usage: "Comment commands",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Comment on content, or reply with --parent",
				ArgsUsage: "CONTENT_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "author", Required: true},
					&cli.StringFlag{Name: "text", Required: true},
					&cli.UintFlag{Name: "parent"},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := argID(c, "content id")
					if err != nil {
						return err
					}
					in := application.CreateCommentInput{ContentID: id, AuthorID: c.String("author"), Body: c.String("text")}
					if c.IsSet("parent") {
						parent := uint(c.Uint("parent"))
						in.ParentID = &parent
					}
					return remote(func(ctx context.Context, cfg cliConfig, out *domain.Comment) error {
						return doCommentCreate(ctx, cfg, in, out)
					}, func(out domain.Comment) {
						printKV([][2]string{{"id", uintToString(out.ID)}, {"parent", formatMaybeUint(out.ParentID)}, {"created", formatTime(out.CreatedAt)}})
					})(ctx, c)
				},
			},
			{
				Name:      "list",
				Usage:     "List comment threads on content",
				ArgsUsage: "CONTENT_ID",
				Flags:     pageFlags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := argID(c, "content id")
					if err != nil {
						return err
					}
					return remote(func(ctx context.Context, cfg cliConfig, out *pagedResult[domain.CommentThread]) error {
						return doCommentList(ctx, cfg, id, pageFrom(c), out)
					}, func(out pagedResult[domain.CommentThread]) {
						printThreads(out.Items)
						printPageInfo(out.Pagination)
					})(ctx, c)
				},
			},
		},
	}
}

func socialCommand() *cli.Command {
	followList := func(direction string) *cli.Command {
		return &cli.Command{
			Name:      direction,
			Usage:     "List " + direction,
			ArgsUsage: "USER_ID",
			Flags:     pageFlags(),
			Action: func(ctx context.Context, c *cli.Command) error {
				user, err := argUser(c, 0)
				if err != nil {
					return err
				}
				return remote(func(ctx context.Context, cfg cliConfig, out *pagedResult[domain.FollowEdge]) error {
					return doFollowList(ctx, cfg, direction, user, pageFrom(c), out)
				}, func(out pagedResult[domain.FollowEdge]) {
					printEdges(out.Items)
					printPageInfo(out.Pagination)
				})(ctx, c)
			},
		}
	}

	return &cli.Command{
		Name:  "social",
		Usage: "Follow graph commands",
		Commands: []*cli.Command{
			{
				Name:      "follow",
				Usage:     "Follow a user",
				ArgsUsage: "FOLLOWER_ID FOLLOWED_ID",
				Flags:     []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					follower, err := argUser(c, 0)
					if err != nil {
						return err
					}
					followed, err := argUser(c, 1)
					if err != nil {
						return err
					}
					return remote(func(ctx context.Context, cfg cliConfig, out *mirroredResult[domain.FollowEdge]) error {
						return doFollow(ctx, cfg, follower, followed, out)
					}, func(out mirroredResult[domain.FollowEdge]) {
						fmt.Printf("%s now follows %s\n", out.Value.FollowerID, out.Value.FollowedID)
						printMirror(out.Mirror)
					})(ctx, c)
				},
			},
			{
				Name:      "unfollow",
				Usage:     "Remove a follow",
				ArgsUsage: "FOLLOWER_ID FOLLOWED_ID",
				Action: func(ctx context.Context, c *cli.Command) error {
					follower, err := argUser(c, 0)
					if err != nil {
						return err
					}
					followed, err := argUser(c, 1)
					if err != nil {
						return err
					}
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					if err := doUnfollow(ctx, cfg, follower, followed); err != nil {
						return err
					}
					fmt.Printf("%s no longer follows %s\n", follower, followed)
					return nil
				},
			},
			followList("followers"),
			followList("following"),
			{
				Name:      "mutual",
				Usage:     "Users who follow each other with USER_ID",
				ArgsUsage: "USER_ID",
				Flags:     []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					user, err := argUser(c, 0)
					if err != nil {
						return err
					}
					return remote(func(ctx context.Context, cfg cliConfig, out *[]string) error {
						return doMutualFollows(ctx, cfg, user, out)
					}, printUserIDs)(ctx, c)
				},
			},
			{
				Name:      "suggest",
				Usage:     "Friends-of-friends suggestions",
				ArgsUsage: "USER_ID",
				Flags:     []cli.Flag{&cli.IntFlag{Name: "limit"}, jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					user, err := argUser(c, 0)
					if err != nil {
						return err
					}
					return remote(func(ctx context.Context, cfg cliConfig, out *[]string) error {
						return doSuggestedUsers(ctx, cfg, user, int(c.Int("limit")), out)
					}, printUserIDs)(ctx, c)
				},
			},
			{
				Name:      "stats",
				Usage:     "Follow and message counts for a user",
				ArgsUsage: "USER_ID",
				Flags:     []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					user, err := argUser(c, 0)
					if err != nil {
						return err
					}
					return remote(func(ctx context.Context, cfg cliConfig, out *domain.SocialStats) error {
						return doSocialStats(ctx, cfg, user, out)
					}, func(out domain.SocialStats) {
						printKV([][2]string{
							{"followers", formatCount(out.Followers)},
							{"following", formatCount(out.Following)},
							{"sent", formatCount(out.SentMessages)},
							{"received", formatCount(out.ReceivedMessages)},
							{"unread", formatCount(out.UnreadMessages)},
						})
					})(ctx, c)
				},
			},
		},
	}
}

func messagesCommand() *cli.Command {
	return &cli.Command{
		Name:  "messages",
		Usage: "Direct message commands",
		Commands: []*cli.Command{
			{
				Name:  "send",
				Usage: "Send a direct message",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from", Required: true},
					&cli.StringFlag{Name: "to", Required: true},
					&cli.StringFlag{Name: "text", Required: true},
					&cli.StringFlag{Name: "type", Value: "text", Usage: "text, image or file"},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					in := application.SendMessageInput{
						SenderID:    c.String("from"),
						RecipientID: c.String("to"),
						Body:        c.String("text"),
						Kind:        domain.MessageKind(c.String("type")),
					}
					return remote(func(ctx context.Context, cfg cliConfig, out *mirroredResult[domain.Message]) error {
						return doSendMessage(ctx, cfg, in, out)
					}, func(out mirroredResult[domain.Message]) {
						printKV([][2]string{{"id", uintToString(out.Value.ID)}, {"hash", formatMaybeString(out.Value.ContentHash)}})
						printMirror(out.Mirror)
					})(ctx, c)
				},
			},
			{
				Name:      "read",
				Usage:     "Mark a received message read",
				ArgsUsage: "MESSAGE_ID",
				Flags:     []cli.Flag{&cli.StringFlag{Name: "user", Required: true}, jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := argID(c, "message id")
					if err != nil {
						return err
					}
					return remote(func(ctx context.Context, cfg cliConfig, out *domain.Message) error {
						return doMarkRead(ctx, cfg, id, c.String("user"), out)
					}, func(out domain.Message) {
						printMessages([]domain.Message{out})
					})(ctx, c)
				},
			},
			{
				Name:      "conversations",
				Usage:     "Conversation summaries for a user",
				ArgsUsage: "USER_ID",
				Flags:     []cli.Flag{jsonFlag()},
				Action: func(ctx context.Context, c *cli.Command) error {
					user, err := argUser(c, 0)
					if err != nil {
						return err
					}
					return remote(func(ctx context.Context, cfg cliConfig, out *[]domain.Conversation) error {
						return doConversations(ctx, cfg, user, out)
					}, printConversations)(ctx, c)
				},
			},
			{
				Name:      "thread",
				Usage:     "Messages between two users, oldest first",
				ArgsUsage: "USER_ID PARTNER_ID",
				Flags:     pageFlags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					user, err := argUser(c, 0)
					if err != nil {
						return err
					}
					partner, err := argUser(c, 1)
					if err != nil {
						return err
					}
					return remote(func(ctx context.Context, cfg cliConfig, out *pagedResult[domain.Message]) error {
						return doThread(ctx, cfg, user, partner, pageFrom(c), out)
					}, func(out pagedResult[domain.Message]) {
						printMessages(out.Items)
						printPageInfo(out.Pagination)
					})(ctx, c)
				},
			},
		},
	}
}

func mirrorCommand() *cli.Command {
	return &cli.Command{
		Name:  "mirror",
		Usage: "Ledger mirror records",
		Commands: []*cli.Command{
			{
				Name:  "records",
				Usage: "List mirror records",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "pending, acknowledged or failed"},
					&cli.IntFlag{Name: "limit"},
					jsonFlag(),
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return remote(func(ctx context.Context, cfg cliConfig, out *[]domain.MirrorRecord) error {
						return doMirrorRecords(ctx, cfg, c.String("status"), int(c.Int("limit")), out)
					}, printMirrorRecords)(ctx, c)
				},
			},
			{
				Name:      "ack",
				Usage:     "Acknowledge a mirror record out of band",
				ArgsUsage: "EVENT_ID",
				Flags:     []cli.Flag{&cli.StringFlag{Name: "tx-ref", Required: true}},
				Action: func(ctx context.Context, c *cli.Command) error {
					eventID := strings.TrimSpace(c.Args().First())
					if eventID == "" {
						return fmt.Errorf("event id is required")
					}
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out struct {
						Acknowledged bool `json:"acknowledged"`
					}
					if err := doMirrorAck(ctx, cfg, eventID, c.String("tx-ref"), &out); err != nil {
						return err
					}
					if out.Acknowledged {
						fmt.Printf("event %s acknowledged\n", eventID)
					} else {
						fmt.Printf("event %s was already acknowledged\n", eventID)
					}
					return nil
				},
			},
		},
	}
}
