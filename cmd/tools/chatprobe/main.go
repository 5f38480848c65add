package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/zhouzirui/code-mentor/backend/internal/config"
	"github.com/zhouzirui/code-mentor/backend/internal/model/persona"
	"github.com/zhouzirui/code-mentor/backend/internal/service/ai"
	"github.com/zhouzirui/code-mentor/backend/internal/service/chat"
	"github.com/zhouzirui/code-mentor/backend/internal/service/review"
)

// CLI 手动验证模型配置的小工具
type CLI struct {
	Verbose bool `short:"v" help:"Log every model call."`

	Chat   ChatCmd   `cmd:"" help:"Hold a conversation; one message per --message or per stdin line."`
	Review ReviewCmd `cmd:"" help:"Request a one-shot code review."`
}

// ChatCmd 多轮对话
type ChatCmd struct {
	Persona string   `help:"Persona to talk to." default:"coding-mentor"`
	Message []string `short:"m" help:"Message to send, repeatable. Reads stdin lines when omitted."`
}

// ReviewCmd 代码审查
type ReviewCmd struct {
	File        string   `short:"f" help:"File to review. Reads stdin when omitted." type:"existingfile"`
	TranslateTo []string `short:"t" help:"Target languages for translation."`
}

// maxLineBytes 限制单行输入, 足够粘贴一整个源文件
const maxLineBytes = 4 << 20

type app struct {
	ctx       context.Context
	generator ai.Generator
	timeout   time.Duration
	stdin     io.Reader
	stdout    io.Writer
	logger    *slog.Logger
}

// newGenerator 从环境变量构建模型客户端, 测试中可替换
var newGenerator = func(ctx context.Context) (ai.Generator, time.Duration, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, 0, err
	}
	gen, err := ai.NewGenerator(ctx, cfg.AI)
	if err != nil {
		return nil, 0, err
	}
	return gen, cfg.AI.RequestTimeout, nil
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] 无法加载 .env，改用系统环境变量: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("chatprobe"),
		kong.Description("Talk to the configured model the same way the chat server does."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	level := slog.LevelWarn
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	generator, timeout, err := newGenerator(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return 1
	}

	if err := kctx.Run(&app{
		ctx:       ctx,
		generator: generator,
		timeout:   timeout,
		stdin:     stdin,
		stdout:    stdout,
		logger:    logger,
	}); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// Run 逐条提交消息并打印回复
func (c *ChatCmd) Run(a *app) error {
	ctx := a.ctx
	svc := chat.NewService(a.generator, persona.NewMemoryStore(persona.Seed()),
		chat.WithTimeout(a.timeout),
		chat.WithLogger(a.logger),
	)

	session, err := svc.CreateSession(ctx, c.Persona)
	if err != nil {
		return err
	}
	defer svc.DiscardSession(ctx, session.ID())

	submit := func(text string) error {
		turns, err := session.Submit(ctx, text)
		if errors.Is(err, chat.ErrEmptyInput) {
			return nil
		}
		var aiErr *ai.Error
		if err != nil && !errors.As(err, &aiErr) {
			return err
		}
		last := turns[len(turns)-1]
		fmt.Fprintf(a.stdout, "> %s\n", text)
		if last.IsNotice() {
			fmt.Fprintf(a.stdout, "[%s] %s\n\n", last.Notice, last.Text)
		} else {
			fmt.Fprintf(a.stdout, "%s\n\n", last.Text)
		}
		return nil
	}

	if len(c.Message) > 0 {
		for _, msg := range c.Message {
			if err := submit(msg); err != nil {
				return err
			}
		}
		return nil
	}

	scanner := bufio.NewScanner(a.stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if err := submit(scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Run 读取代码并打印审查结果
func (c *ReviewCmd) Run(a *app) error {
	var (
		code []byte
		err  error
	)
	if c.File != "" {
		code, err = os.ReadFile(c.File)
	} else {
		code, err = io.ReadAll(a.stdin)
	}
	if err != nil {
		return fmt.Errorf("read code: %w", err)
	}

	reviewer, _ := persona.NewMemoryStore(persona.Seed()).FindByID(persona.ReviewerID)
	system := ai.NewPersonaPromptManager().BuildSystemPrompt(reviewer)
	svc := review.NewService(a.generator, system, nil, a.logger)

	ctx := a.ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	result, err := svc.Review(ctx, review.Request{Code: string(code), TranslateTo: c.TranslateTo})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, strings.TrimSpace(result))
	return nil
}
