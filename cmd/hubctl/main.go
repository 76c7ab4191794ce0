package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"hubclient/internal/analytics"
	"hubclient/internal/apiclient"
	"hubclient/internal/cmdlog"
	"hubclient/internal/config"
	"hubclient/internal/localcache"
	"hubclient/internal/logging"
	"hubclient/internal/metrics"
	"hubclient/internal/model"
	"hubclient/internal/realtime"
	"hubclient/internal/reqcache"
	"hubclient/internal/session"
	"hubclient/internal/state"
	"hubclient/internal/store/chatlog"
	"hubclient/internal/theme"
	"hubclient/internal/uploads"
	"hubclient/internal/util"
)

func main() {
	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	switch cmd {
	case "init":
		cmdInit()
	case "login":
		run("login", cmdLogin)
	case "whoami":
		run("whoami", cmdWhoami)
	case "boards":
		run("boards", cmdBoards)
	case "tweets":
		run("tweets", cmdTweets)
	case "post":
		run("post", cmdPost)
	case "like":
		run("like", cmdLike)
	case "chats":
		run("chats", cmdChats)
	case "send":
		run("send", cmdSend)
	case "upload":
		run("upload", cmdUpload)
	case "points":
		run("points", cmdPoints)
	case "stats":
		run("stats", cmdStats)
	case "watch":
		run("watch", cmdWatch)
	default:
		printHelp()
	}
}

func printHelp() {
	theme.PrintBanner()
	fmt.Println("Usage: hubctl <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  init        Create a config file at ./hubctl.yaml")
	fmt.Println("  login       Exchange credentials for a session token")
	fmt.Println("  whoami      Show profile and session expiry")
	fmt.Println("  boards      List boards")
	fmt.Println("  tweets      List tweets on a board")
	fmt.Println("  post        Post a tweet on a board")
	fmt.Println("  like        Toggle a like on a tweet")
	fmt.Println("  chats       List conversations with unread counts")
	fmt.Println("  send        Send a direct message")
	fmt.Println("  upload      Upload files")
	fmt.Println("  points      Show points balance and history")
	fmt.Println("  stats       Hourly chat activity from the local journal")
	fmt.Println("  watch       Follow the realtime message feed")
}

func run(name string, f func() error) {
	if err := cmdlog.Run(name, f); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

type app struct {
	cfg    config.Config
	sess   *session.Session
	client *apiclient.Client
}

func loadApp(cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Pretty)
	metrics.StartServer(cfg.Metrics.Addr)
	sess := session.New(cfg.Credentials.AccessToken)
	sess.SetCredentials(cfg.Credentials.AccessToken, cfg.Account.AnonymousID, cfg.Account.Username)
	sess.OnLogout(func() {
		fmt.Println("session expired, run: hubctl login")
	})
	if cfg.Credentials.AccessToken == "" {
		fmt.Println("warning: missing HUB_ACCESS_TOKEN; authenticated calls will fail")
	}
	return &app{cfg: cfg, sess: sess, client: apiclient.New(cfg.API, sess)}, nil
}

func cmdInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("path", "./hubctl.yaml", "path to write config")
	_ = fs.Parse(os.Args[2:])
	cfg := config.Default()
	if err := config.Save(*path, cfg); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	abs, _ := filepath.Abs(*path)
	theme.PrintBanner()
	fmt.Println("Config written to:", abs)
}

func cmdLogin() error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	cfgPath := fs.String("config", "./hubctl.yaml", "config path")
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password")
	_ = fs.Parse(os.Args[2:])
	a, err := loadApp(*cfgPath)
	if err != nil {
		return err
	}
	resp, err := a.client.Login(context.Background(), apiclient.LoginRequest{Username: *username, Password: *password})
	if err != nil {
		return err
	}
	a.cfg.Credentials.AccessToken = resp.AccessToken
	a.cfg.Account.Username = resp.Username
	a.cfg.Account.AnonymousID = resp.AnonymousID
	if err := config.Save(*cfgPath, a.cfg); err != nil {
		return err
	}
	fmt.Println("Logged in as", resp.Username)
	return nil
}

func cmdWhoami() error {
	fs := flag.NewFlagSet("whoami", flag.ExitOnError)
	cfgPath := fs.String("config", "./hubctl.yaml", "config path")
	_ = fs.Parse(os.Args[2:])
	a, err := loadApp(*cfgPath)
	if err != nil {
		return err
	}
	local, _ := localcache.New()
	profiles := state.NewProfileStore(a.client, a.sess, local)
	p, err := profiles.FetchProfile(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("@%s (%s)\n", p.Username, p.AnonymousID)
	fmt.Println("bio:", p.Bio)
	if exp := a.sess.ExpiresAt(); !exp.IsZero() {
		fmt.Println("session expires:", exp.Format(time.RFC3339))
	}
	return nil
}

func cmdBoards() error {
	fs := flag.NewFlagSet("boards", flag.ExitOnError)
	cfgPath := fs.String("config", "./hubctl.yaml", "config path")
	classID := fs.String("class", "", "class id filter")
	gateID := fs.String("gate", "", "gate id filter")
	_ = fs.Parse(os.Args[2:])
	a, err := loadApp(*cfgPath)
	if err != nil {
		return err
	}
	boards, err := a.client.ListBoards(context.Background(), *classID, *gateID, 50, 0)
	if err != nil {
		return err
	}
	for _, b := range boards {
		fmt.Printf("%s  %s (%d tweets)\n", b.BoardID, b.Name, b.TweetCount)
	}
	return nil
}

func cmdTweets() error {
	fs := flag.NewFlagSet("tweets", flag.ExitOnError)
	cfgPath := fs.String("config", "./hubctl.yaml", "config path")
	boardID := fs.String("board", "", "board id")
	_ = fs.Parse(os.Args[2:])
	a, err := loadApp(*cfgPath)
	if err != nil {
		return err
	}
	tweets := state.NewTweetStore(a.client, a.sess, *boardID, a.cfg.Cache.Debounce)
	items, err := tweets.FetchTweets(context.Background())
	if err != nil {
		return err
	}
	for _, t := range items {
		flag := " "
		if t.IsPinned {
			flag = "*"
		}
		fmt.Printf("%s %s @%s [%s] ♥%d  %s\n", flag, t.TweetID, t.Username, t.Status, t.LikeCount,
			util.Truncate(util.NormalizeWhitespace(t.Content.Value), 80))
	}
	return nil
}

func cmdPost() error {
	fs := flag.NewFlagSet("post", flag.ExitOnError)
	cfgPath := fs.String("config", "./hubctl.yaml", "config path")
	boardID := fs.String("board", "", "board id")
	text := fs.String("text", "", "tweet text")
	x := fs.Float64("x", 0, "board x position")
	y := fs.Float64("y", 0, "board y position")
	anon := fs.Bool("anon", false, "post anonymously")
	_ = fs.Parse(os.Args[2:])
	a, err := loadApp(*cfgPath)
	if err != nil {
		return err
	}
	tweets := state.NewTweetStore(a.client, a.sess, *boardID, a.cfg.Cache.Debounce)
	req := apiclient.CreateTweetRequest{
		BoardID: *boardID,
		Content: model.Content{
			Type:  model.ContentText,
			Value: util.NormalizeWhitespace(*text),
			Metadata: model.ContentMetadata{
				Hashtags: util.ExtractHashtags(*text),
				Mentions: util.ExtractMentions(*text),
			},
		},
		Position:    model.Position{X: *x, Y: *y},
		IsAnonymous: *anon,
	}
	t, err := tweets.CreateTweet(context.Background(), req)
	if err != nil {
		return err
	}
	fmt.Println("posted:", t.TweetID)
	return nil
}

func cmdLike() error {
	fs := flag.NewFlagSet("like", flag.ExitOnError)
	cfgPath := fs.String("config", "./hubctl.yaml", "config path")
	boardID := fs.String("board", "", "board id")
	tweetID := fs.String("tweet", "", "tweet id")
	_ = fs.Parse(os.Args[2:])
	a, err := loadApp(*cfgPath)
	if err != nil {
		return err
	}
	tweets := state.NewTweetStore(a.client, a.sess, *boardID, a.cfg.Cache.Debounce)
	if _, err := tweets.FetchTweets(context.Background()); err != nil {
		return err
	}
	t, err := tweets.ToggleLike(context.Background(), *tweetID)
	if err != nil {
		return err
	}
	fmt.Printf("%s now has %d likes\n", t.TweetID, t.LikeCount)
	return nil
}

func openChat(a *app) (*state.ChatStore, error) {
	journal, err := chatlog.Open(a.cfg.Storage.DBPath)
	if err != nil {
		return nil, err
	}
	cache := reqcache.New(a.cfg.Cache.TTL)
	return state.NewChatStore(a.client, a.sess, cache, journal), nil
}

func cmdChats() error {
	fs := flag.NewFlagSet("chats", flag.ExitOnError)
	cfgPath := fs.String("config", "./hubctl.yaml", "config path")
	_ = fs.Parse(os.Args[2:])
	a, err := loadApp(*cfgPath)
	if err != nil {
		return err
	}
	chat, err := openChat(a)
	if err != nil {
		return err
	}
	ctx := context.Background()
	convs, err := chat.FetchConversations(ctx)
	if err != nil {
		return err
	}
	for _, c := range convs {
		_ = chat.SeedFromJournal(ctx, c.ConversationID)
		if _, err := chat.FetchMessages(ctx, c.ConversationID, true); err != nil {
			return err
		}
	}
	for _, c := range chat.Conversations() {
		last := ""
		if c.LastMessage != nil {
			last = util.Truncate(c.LastMessage.Content, 40)
		}
		fmt.Printf("%s  %s  unread=%d  %s\n", c.ConversationID, c.Name, c.UnreadCount, last)
	}
	return nil
}

func cmdSend() error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	cfgPath := fs.String("config", "./hubctl.yaml", "config path")
	convID := fs.String("conversation", "", "conversation id")
	to := fs.String("to", "", "receiver anonymous id")
	text := fs.String("text", "", "message text")
	_ = fs.Parse(os.Args[2:])
	a, err := loadApp(*cfgPath)
	if err != nil {
		return err
	}
	chat, err := openChat(a)
	if err != nil {
		return err
	}
	m, err := chat.SendMessage(context.Background(), *convID, apiclient.SendMessageRequest{
		ReceiverID: *to,
		Content:    *text,
	})
	if err != nil {
		return err
	}
	fmt.Println("sent:", m.MessageID)
	return nil
}

func cmdUpload() error {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	cfgPath := fs.String("config", "./hubctl.yaml", "config path")
	_ = fs.Parse(os.Args[2:])
	a, err := loadApp(*cfgPath)
	if err != nil {
		return err
	}
	mgr := uploads.New(a.client, a.cfg.Uploads)
	var files []uploads.File
	var handles []*os.File
	defer func() {
		for _, h := range handles {
			_ = h.Close()
		}
	}()
	for _, path := range fs.Args() {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		handles = append(handles, f)
		info, err := f.Stat()
		if err != nil {
			return err
		}
		files = append(files, uploads.File{
			Name:        filepath.Base(path),
			ContentType: "application/octet-stream",
			Size:        info.Size(),
			Reader:      f,
		})
	}
	results, err := mgr.UploadFiles(context.Background(), files, func(pct float64) {
		fmt.Printf("\rprogress: %5.1f%%", pct)
	})
	fmt.Println()
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Printf("%s -> %s\n", r.Name, r.Key)
	}
	return nil
}

func cmdPoints() error {
	fs := flag.NewFlagSet("points", flag.ExitOnError)
	cfgPath := fs.String("config", "./hubctl.yaml", "config path")
	limit := fs.Int("limit", 10, "history entries")
	_ = fs.Parse(os.Args[2:])
	a, err := loadApp(*cfgPath)
	if err != nil {
		return err
	}
	local, _ := localcache.New()
	profiles := state.NewProfileStore(a.client, a.sess, local)
	ctx := context.Background()
	p, err := profiles.FetchPoints(ctx)
	if err != nil {
		return err
	}
	fmt.Println("balance:", p.Balance)
	history, err := profiles.History(ctx, *limit)
	if err != nil {
		return err
	}
	for _, e := range history {
		fmt.Printf("%+d  %s\n", e.Delta, e.Reason)
	}
	return nil
}

func cmdStats() error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	cfgPath := fs.String("config", "./hubctl.yaml", "config path")
	convID := fs.String("conversation", "", "conversation id")
	_ = fs.Parse(os.Args[2:])
	a, err := loadApp(*cfgPath)
	if err != nil {
		return err
	}
	journal, err := chatlog.Open(a.cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer journal.Close()
	msgs, err := journal.LoadMessages(context.Background(), *convID)
	if err != nil {
		return err
	}
	buckets := analytics.HourlyActivity(msgs, a.sess.AnonymousID())
	for _, k := range analytics.SortedBucketKeys(buckets) {
		fmt.Printf("%s -> %v\n", k.Format("2006-01-02 15:00"), buckets[k])
	}
	return nil
}

func cmdWatch() error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	cfgPath := fs.String("config", "./hubctl.yaml", "config path")
	_ = fs.Parse(os.Args[2:])
	a, err := loadApp(*cfgPath)
	if err != nil {
		return err
	}
	chat, err := openChat(a)
	if err != nil {
		return err
	}
	url := a.cfg.Realtime.URL
	if url == "" {
		url = realtime.DeriveURL(a.cfg.API.BaseURL)
	}
	sub := realtime.New(url, a.sess, watchSink{chat: chat})
	fmt.Println("watching", url)
	return sub.Run(context.Background())
}

// watchSink prints pushed messages as it folds them into the store.
type watchSink struct {
	chat *state.ChatStore
}

func (w watchSink) ApplyIncoming(conversationID string, m model.Message) {
	w.chat.ApplyIncoming(conversationID, m)
	fmt.Printf("[%s] %s: %s\n", conversationID, m.SenderID, m.Content)
}
