package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/daemon"
	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/spawn"
	"github.com/1broseidon/tilewm/internal/wm"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

func main() {
	fs := flag.NewFlagSet("tilewm", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("c", "", "Config file path (default: ~/.config/tilewm/config.yaml)")
	debug := fs.Bool("d", false, "Debug logging")
	fs.Usage = func() { printMainUsage(os.Stderr) }
	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	args := fs.Args()
	if len(args) == 0 {
		runWM(*configPath, *debug)
		return
	}

	switch args[0] {
	case "run":
		if len(args) > 1 {
			fmt.Fprintln(os.Stderr, "run takes no arguments")
			os.Exit(2)
		}
		runWM(*configPath, *debug)
	case "msg":
		os.Exit(runMsg(*configPath, args[1:]))
	case "config":
		os.Exit(runConfig(*configPath, args[1:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tilewm [-c PATH] [-d] [command]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run                 Run the window manager (default)")
	fmt.Fprintln(w, "  msg FUNC[=PARAM]    Send a screen function to the running window manager")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  -c PATH             Config file path")
	fmt.Fprintln(w, "  -d                  Debug logging")
}

func runWM(configPath string, debug bool) {
	status, err := daemon.Start(context.Background(), daemon.Options{
		ConfigPath: configPath,
		Debug:      debug,
	})
	if err != nil {
		log.Fatalf("tilewm: %v", err)
	}
	if status == wm.Restarting {
		log.Printf("tilewm: restarting")
		if err := spawn.Reexec(); err != nil {
			log.Fatalf("tilewm: restart failed: %v", err)
		}
	}
}

func runMsg(configPath string, args []string) int {
	fs := flag.NewFlagSet("msg", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	screen := fs.Int("s", 0, "Screen number")
	addr := fs.String("a", "", "Command socket (default: command_socket from the config)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tilewm msg [-s SCREEN] [-a SOCKET] FUNCTION[=PARAM]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run a screen function such as desktop-switch-2 or activate-client=0x1a00003.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	cmd, err := ipc.ParseCommand(fmt.Sprintf("%d;%s", *screen, fs.Arg(0)))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	socket := *addr
	if socket == "" {
		if res, err := loadConfig(configPath); err == nil {
			socket = res.Config.CommandSocket
		}
	}
	if err := ipc.NewClient(socket).Send(cmd); err != nil {
		fmt.Fprintf(os.Stderr, "tilewm: %v\n", err)
		return 1
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Println("ok")
	}
	return 0
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFromPath(path)
}

func runConfig(configPath string, args []string) int {
	if len(args) == 0 {
		printConfigUsage()
		return 2
	}
	switch args[0] {
	case "validate":
		return configValidate(configPath)
	case "print":
		return configPrint(configPath, args[1:])
	case "explain":
		return configExplain(configPath, args[1:])
	case "help", "-h", "--help":
		printConfigUsage()
		return 0
	}
	fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
	printConfigUsage()
	return 2
}

func printConfigUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  tilewm [-c PATH] config validate")
	fmt.Fprintln(os.Stderr, "  tilewm [-c PATH] config print [--defaults]")
	fmt.Fprintln(os.Stderr, "  tilewm [-c PATH] config explain <yaml.path>")
}

func configValidate(configPath string) int {
	res, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("config: ok (%d file(s))\n", len(res.Files))
	return 0
}

func configPrint(configPath string, args []string) int {
	fs := flag.NewFlagSet("print", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	defaults := fs.Bool("defaults", false, "Print built-in defaults, ignoring config files")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := config.DefaultConfig()
	if !*defaults {
		res, err := loadConfig(configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		cfg = res.Config
	}
	data, err := cfg.Marshal()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("# terminal resolves to: %s\n", cfg.ResolveTerminal())
	os.Stdout.Write(data)
	return 0
}

func configExplain(configPath string, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "explain requires <yaml.path>")
		return 2
	}
	res, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	value, src, err := config.Explain(res, args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	out, err := yaml.Marshal(value)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("path: %s\nsource: %s\nvalue:\n%s", args[0], formatSource(src), out)
	return 0
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		if src.File == "" {
			return "file"
		}
		if src.Line > 0 {
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		}
		return "file:" + src.File
	default:
		return string(src.Kind)
	}
}
