package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go.klb.dev/multitool/internal/bus"
	"go.klb.dev/multitool/internal/clip"
	"go.klb.dev/multitool/internal/logging"
	"go.klb.dev/multitool/internal/tools"
)

// Input sources for the text tools.
const (
	inputAuto      = "auto"
	inputStdin     = "stdin"
	inputDaemon    = "daemon"
	inputClipboard = "clipboard"
)

var errNoInput = errors.New("no clipboard text to work on")

// newTextToolCmd builds a command that reads one text, applies fn and prints
// the result.
func newTextToolCmd(use, short, long string, args cobra.PositionalArgs, fn func(v *viper.Viper, args []string, in string) (string, error)) *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:     use,
		Short:   short,
		Long:    long + inputHelp,
		Args:    args,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, a []string) error {
			in, err := readInput(cmd, v)
			if err != nil {
				return err
			}
			out, err := fn(v, a, in)
			if err != nil {
				return err
			}
			return writeOutput(cmd, v, out)
		},
	}
	f := cmd.Flags()
	f.String("input", inputAuto, "where the text comes from: auto|stdin|daemon|clipboard")
	addOutputFlags(cmd)
	addClientFlags(cmd)
	return cmd
}

const inputHelp = `

Input (--input):
  auto       stdin when it is not a terminal, otherwise the daemon's latest
             clipboard://text-changed payload
  stdin      read stdin to EOF, dropping one trailing newline
  daemon     latest clipboard text held by the running daemon
  clipboard  read the local system clipboard directly`

// newGeneratorCmd builds a command that needs no input.
func newGeneratorCmd(use, short string, flags func(*cobra.Command), gen func(v *viper.Viper) (string, error)) *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:     use,
		Short:   short,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := gen(v)
			if err != nil {
				return err
			}
			return writeOutput(cmd, v, out)
		},
	}
	flags(cmd)
	addOutputFlags(cmd)
	addConfigFlag(cmd)
	return cmd
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("copy", false, "also put the result on the system clipboard")
	cmd.Flags().String("clipboard", string(clip.KindAtotto), "clipboard backend for --copy and --input clipboard: auto|native|atotto")
}

func readInput(cmd *cobra.Command, v *viper.Viper) (string, error) {
	src := v.GetString("input")
	if src == inputAuto {
		src = inputStdin
		if f, ok := cmd.InOrStdin().(*os.File); ok && logging.IsTTY(f) {
			src = inputDaemon
		}
	}

	switch src {
	case inputStdin:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return strings.TrimSuffix(string(data), "\n"), nil

	case inputDaemon:
		ctx, cancel := context.WithTimeout(context.Background(), v.GetDuration("timeout"))
		defer cancel()
		client, _, closeConn, err := connect(ctx, cmd, v)
		if err != nil {
			return "", err
		}
		defer closeConn()
		payload, err := client.Latest(ctx, bus.TopicTextChanged)
		if status.Code(err) == codes.NotFound {
			return "", errNoInput
		}
		if err != nil {
			return "", fmt.Errorf("latest: %w", err)
		}
		return payload, nil

	case inputClipboard:
		backend, err := openClipboard(v)
		if err != nil {
			return "", err
		}
		defer backend.Close()
		text, err := backend.ReadText()
		if errors.Is(err, clip.ErrNoText) {
			return "", errNoInput
		}
		return text, err

	default:
		return "", fmt.Errorf("unknown input %q (want %s|%s|%s|%s)", src, inputAuto, inputStdin, inputDaemon, inputClipboard)
	}
}

func writeOutput(cmd *cobra.Command, v *viper.Viper, out string) error {
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	if !v.GetBool("copy") {
		return nil
	}
	backend, err := openClipboard(v)
	if err != nil {
		return err
	}
	defer backend.Close()
	if err := backend.WriteText(out); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

func openClipboard(v *viper.Viper) (clip.Backend, error) {
	kind, err := clip.ParseKind(v.GetString("clipboard"))
	if err != nil {
		return nil, err
	}
	backend, err := clip.New(kind)
	if err != nil {
		return nil, fmt.Errorf("clipboard: %w", err)
	}
	return backend, nil
}

func newFmtCmd() *cobra.Command {
	cmd := newTextToolCmd("fmt json|xml", "Pretty-print or minify JSON or XML",
		`Re-indents a JSON or XML document with two spaces, or strips the
whitespace between tokens with --minify. Invalid documents are reported and
nothing is printed.`,
		cobra.ExactArgs(1),
		func(v *viper.Viper, args []string, in string) (string, error) {
			minify := v.GetBool("minify")
			switch strings.ToLower(args[0]) {
			case "json":
				if minify {
					return tools.MinifyJSON(in)
				}
				return tools.FormatJSON(in)
			case "xml":
				if minify {
					return tools.MinifyXML(in)
				}
				return tools.FormatXML(in)
			default:
				return "", fmt.Errorf("unknown format %q (want json|xml)", args[0])
			}
		})
	cmd.Flags().Bool("minify", false, "remove whitespace instead of indenting")
	return cmd
}

func newJWTCmd() *cobra.Command {
	return newTextToolCmd("jwt", "Decode a JWT without verifying it",
		`Prints the header and payload of a compact JWT as indented JSON. The
signature is not checked.`,
		cobra.NoArgs,
		func(_ *viper.Viper, _ []string, in string) (string, error) {
			j, err := tools.DecodeJWT(in)
			if err != nil {
				return "", err
			}
			return "# header\n" + j.Header + "\n# payload\n" + j.Payload, nil
		})
}

func newCodecCmd(decode bool) *cobra.Command {
	verb, short := "encode", "Base64- or URL-encode text"
	if decode {
		verb, short = "decode", "Decode Base64 or URL-encoded text"
	}
	return newTextToolCmd(verb+" base64|url", short,
		`base64 uses the standard alphabet; decoding also accepts the URL-safe one
and missing padding. url follows encodeURIComponent rules.`,
		cobra.ExactArgs(1),
		func(_ *viper.Viper, args []string, in string) (string, error) {
			switch strings.ToLower(args[0]) {
			case "base64":
				if decode {
					return tools.DecodeBase64(in)
				}
				return tools.EncodeBase64(in), nil
			case "url":
				if decode {
					return tools.DecodeURIComponent(in)
				}
				return tools.EncodeURIComponent(in), nil
			default:
				return "", fmt.Errorf("unknown codec %q (want base64|url)", args[0])
			}
		})
}

func newHashCmd() *cobra.Command {
	return newTextToolCmd("hash", "Print MD5, SHA1, SHA-256 and SHA-512 digests",
		`Hashes the UTF-8 bytes of the input.`,
		cobra.NoArgs,
		func(_ *viper.Viper, _ []string, in string) (string, error) {
			var b strings.Builder
			for i, d := range tools.Hashes(in) {
				if i > 0 {
					b.WriteByte('\n')
				}
				fmt.Fprintf(&b, "%-8s %s", d.Name, d.Hex)
			}
			return b.String(), nil
		})
}

func newTextCmd() *cobra.Command {
	names := make([]string, len(tools.Transforms))
	var help strings.Builder
	for i, t := range tools.Transforms {
		names[i] = t.Name
		fmt.Fprintf(&help, "\n  %-10s %s", t.Name, t.Usage)
	}
	cmd := newTextToolCmd("text <transform>", "Change case or reorder lines",
		"Applies one transform to the input:\n"+help.String(),
		cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		func(_ *viper.Viper, args []string, in string) (string, error) {
			t, err := tools.LookupTransform(args[0])
			if err != nil {
				return "", err
			}
			return t.Apply(in), nil
		})
	cmd.ValidArgs = names
	return cmd
}

func newUUIDCmd() *cobra.Command {
	return newGeneratorCmd("uuid", "Generate UUIDs",
		func(cmd *cobra.Command) {
			f := cmd.Flags()
			f.Int("version", 4, "UUID version: 1 (time based) or 4 (random)")
			f.Int("count", 1, "how many to generate")
			f.Bool("no-hyphens", false, "omit the hyphens")
			f.Bool("upper", false, "upper-case hex digits")
		},
		func(v *viper.Viper) (string, error) {
			ids, err := tools.UUIDs(tools.UUIDOptions{
				Version:   v.GetInt("version"),
				Count:     v.GetInt("count"),
				NoHyphens: v.GetBool("no-hyphens"),
				Uppercase: v.GetBool("upper"),
			})
			return strings.Join(ids, "\n"), err
		})
}

func newPasswordCmd() *cobra.Command {
	return newGeneratorCmd("password", "Generate a random password",
		func(cmd *cobra.Command) {
			f := cmd.Flags()
			f.Int("length", tools.DefaultPasswordLength, "number of characters")
			f.Bool("no-upper", false, "leave out A-Z")
			f.Bool("no-lower", false, "leave out a-z")
			f.Bool("no-digits", false, "leave out 0-9")
			f.Bool("no-symbols", false, "leave out punctuation")
			f.Bool("exclude-similar", false, "leave out look-alikes such as l, 1, O and 0")
		},
		func(v *viper.Viper) (string, error) {
			return tools.Password(tools.PasswordOptions{
				Length:         v.GetInt("length"),
				Upper:          !v.GetBool("no-upper"),
				Lower:          !v.GetBool("no-lower"),
				Digits:         !v.GetBool("no-digits"),
				Symbols:        !v.GetBool("no-symbols"),
				ExcludeSimilar: v.GetBool("exclude-similar"),
			})
		})
}
