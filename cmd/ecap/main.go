// Command ecap embeds or extracts an authenticated-encrypted message in a
// carrier file (PNG, JPEG, WebP, or arbitrary binary).
//
// Usage:
//
//	ecap encode -in carrier.png -msg secret.txt -out stego.png
//	ecap decode -in stego.png -out secret.txt
//
// The password is read from -password, falling back to $ECAP_PASSWORD, and
// finally to a masked terminal prompt.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/Admin12121/encapsula/internal/config"
	"github.com/Admin12121/encapsula/internal/zeroize"
	"github.com/Admin12121/encapsula/pkg/ecap"
)

const envPassword = "ECAP_PASSWORD"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "encode":
		runEncode(os.Args[2:])
	case "decode":
		runDecode(os.Args[2:])
	case "capacity":
		runCapacity(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: ecap <encode|decode|capacity> [flags]")
}

func setupLogging(verbose bool, format string) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, opts)))
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
	}
}

func loadConfigOrDefault(path string) *config.Config {
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			slog.Debug("could not resolve default config path", "error", err)
			return &config.Config{}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		slog.Warn("config load failed, using flag defaults", "path", path, "error", err)
		return &config.Config{}
	}
	return cfg
}

func runEncode(args []string) {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	in := fs.String("in", "", "carrier file path")
	out := fs.String("out", "", "output stego file path")
	msg := fs.String("msg", "", "path to the plaintext file to embed")
	password := fs.String("password", "", "password (overrides $ECAP_PASSWORD and the terminal prompt)")
	bitsPerChannel := fs.Int("bits-per-channel", 0, "PNG LSB planes per RGB byte: 1 or 2 (0 defers to config/default)")
	maxPixels := fs.Int("max-pixels", 0, "PNG pixel ceiling (0 defers to config/default)")
	configPath := fs.String("config", "", "path to config.yaml (default: next to the binary)")
	verbose := fs.Bool("v", false, "enable debug logging")
	logFormat := fs.String("log-format", "text", "log format: text or json")
	fs.Parse(args)

	setupLogging(*verbose, *logFormat)
	cfg := loadConfigOrDefault(*configPath)

	if *in == "" || *out == "" || *msg == "" {
		fmt.Fprintln(os.Stderr, "encode requires -in, -out, and -msg")
		os.Exit(2)
	}

	carrier, err := os.ReadFile(*in)
	if err != nil {
		fatalf("read carrier: %v", err)
	}
	plaintext, err := os.ReadFile(*msg)
	if err != nil {
		fatalf("read message: %v", err)
	}

	pw := resolvePassword(*password)
	defer zeroize.Bytes(pw)

	opts := ecap.EncodeOptions{
		BitsPerChannel: uint8(resolveInt(*bitsPerChannel, cfg.Carrier.BitsPerChannel)),
		MaxPixels:      resolveInt(*maxPixels, cfg.Carrier.MaxPixels),
	}

	slog.Info("encoding", "carrier", *in, "kind", ecap.DetectCarrierKind(carrier, filepath.Ext(*in)).String(), "plaintext_bytes", len(plaintext))

	stego, err := ecap.Encode(carrier, filepath.Ext(*in), plaintext, pw, opts)
	if err != nil {
		fatalf("encode: %v", err)
	}
	if err := os.WriteFile(*out, stego, 0o644); err != nil {
		fatalf("write output: %v", err)
	}
	fmt.Printf("Wrote %s (%d bytes)\n", *out, len(stego))
}

func runDecode(args []string) {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	in := fs.String("in", "", "stego file path")
	out := fs.String("out", "", "output plaintext file path (default: stdout)")
	password := fs.String("password", "", "password (overrides $ECAP_PASSWORD and the terminal prompt)")
	verbose := fs.Bool("v", false, "enable debug logging")
	logFormat := fs.String("log-format", "text", "log format: text or json")
	fs.Parse(args)

	setupLogging(*verbose, *logFormat)

	if *in == "" {
		fmt.Fprintln(os.Stderr, "decode requires -in")
		os.Exit(2)
	}

	carrier, err := os.ReadFile(*in)
	if err != nil {
		fatalf("read carrier: %v", err)
	}

	pw := resolvePassword(*password)
	defer zeroize.Bytes(pw)

	plaintext, err := ecap.Decode(carrier, pw)
	if err != nil {
		fatalf("decode: %v", err)
	}

	if *out == "" {
		os.Stdout.Write(plaintext)
		return
	}
	if err := os.WriteFile(*out, plaintext, 0o644); err != nil {
		fatalf("write output: %v", err)
	}
	fmt.Printf("Wrote %s (%d bytes)\n", *out, len(plaintext))
}

func runCapacity(args []string) {
	fs := flag.NewFlagSet("capacity", flag.ExitOnError)
	in := fs.String("in", "", "carrier file path")
	bitsPerChannel := fs.Int("bits-per-channel", 1, "PNG LSB planes per RGB byte: 1 or 2")
	maxPixels := fs.Int("max-pixels", 0, "PNG pixel ceiling (0 uses the default)")
	fs.Parse(args)

	if *in == "" {
		fmt.Fprintln(os.Stderr, "capacity requires -in")
		os.Exit(2)
	}

	carrier, err := os.ReadFile(*in)
	if err != nil {
		fatalf("read carrier: %v", err)
	}

	pixelLimit := *maxPixels
	if pixelLimit == 0 {
		pixelLimit = ecap.DefaultMaxPixels
	}
	kind := ecap.DetectCarrierKind(carrier, filepath.Ext(*in))
	bytesAvailable, err := ecap.Capacity(kind, carrier, uint8(*bitsPerChannel), pixelLimit)
	if err != nil {
		fatalf("capacity: %v", err)
	}
	fmt.Printf("%s: %d bytes\n", kind, bytesAvailable)
}

// resolvePassword honors an explicit flag first, then $ECAP_PASSWORD, and
// finally falls back to a masked terminal prompt.
func resolvePassword(flagValue string) []byte {
	if flagValue != "" {
		return []byte(flagValue)
	}
	if env := os.Getenv(envPassword); env != "" {
		return []byte(env)
	}
	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fatalf("read password: %v", err)
	}
	return pw
}

func resolveInt(flagValue int, configValue *int) int {
	if flagValue != 0 {
		return flagValue
	}
	if configValue != nil {
		return *configValue
	}
	return 0
}

func fatalf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
