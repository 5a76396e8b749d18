package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/bouyomi/bouyomi"
	"github.com/five82/bouyomi/internal/config"
)

type sayFlags struct {
	voice  int
	speed  int
	tone   int
	volume int
}

func newSayCmd(flags *globalFlags) *cobra.Command {
	sf := &sayFlags{}
	cmd := &cobra.Command{
		Use:   "say [text...]",
		Short: "Speak a line, or every line of stdin when no text (or -) is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, _, err := newRemote(cmd, flags)
			if err != nil {
				return err
			}
			build := func(text string) bouyomi.TalkRequest {
				return bouyomi.NewTalkRequest(text,
					bouyomi.WithVoice(bouyomi.Voice(sf.voice)),
					bouyomi.WithSpeed(sf.speed),
					bouyomi.WithTone(sf.tone),
					bouyomi.WithVolume(sf.volume),
				)
			}
			if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
				return sayLines(cmd.Context(), remote, cmd.InOrStdin(), build)
			}
			return say(cmd.Context(), remote, build(strings.Join(args, " ")))
		},
	}
	f := cmd.Flags()
	f.IntVar(&sf.voice, "voice", int(bouyomi.VoiceDefault), "voice id (0 default, 1-8 built-in, 10001+ external)")
	f.IntVar(&sf.speed, "speed", bouyomi.Unset, "speed 50-300 (-1 leaves it to the application)")
	f.IntVar(&sf.tone, "tone", bouyomi.Unset, "tone 50-200 (-1 leaves it to the application)")
	f.IntVar(&sf.volume, "volume", bouyomi.Unset, "volume 0-100 (-1 leaves it to the application)")
	return cmd
}

func say(ctx context.Context, speaker bouyomi.Speaker, req bouyomi.TalkRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if err := speaker.Talk(ctx, req); err != nil {
		return fmt.Errorf("talk: %w", err)
	}
	return nil
}

// sayLines sends every non-blank line of r in order, stopping at the first failure.
func sayLines(ctx context.Context, speaker bouyomi.Speaker, r io.Reader, build func(string) bouyomi.TalkRequest) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := say(ctx, speaker, build(line)); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func newControlCmd(flags *globalFlags, name, short string, fn func(bouyomi.Remote, context.Context, ...bouyomi.CallOption) error) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			remote, _, err := newRemote(cmd, flags)
			if err != nil {
				return err
			}
			if err := fn(remote, cmd.Context()); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		},
	}
}

func newStatusCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the application is paused, playing and how many lines are queued",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			remote, cfg, err := newRemote(cmd, flags)
			if err != nil {
				return err
			}
			st, err := remote.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}
			writeStatus(cmd.OutOrStdout(), cfg, remote.Addr(), st)
			return nil
		},
	}
}

func writeStatus(w io.Writer, cfg config.Config, addr string, st bouyomi.Status) {
	fmt.Fprintf(w, "address:     %s (%s)\n", addr, cfg.Transport)
	fmt.Fprintf(w, "paused:      %t\n", st.Paused)
	fmt.Fprintf(w, "playing:     %t\n", st.NowPlaying)
	fmt.Fprintf(w, "tasks:       %d\n", st.TaskCount)
	if cfg.Transport == config.TransportHTTP {
		fmt.Fprintf(w, "now task id: %d\n", st.NowTaskID)
	}
}

func newVoicesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "voices",
		Short: "List the voices the application offers (http transport only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			remote, _, err := newRemote(cmd, flags)
			if err != nil {
				return err
			}
			hc, ok := remote.(*bouyomi.HTTPClient)
			if !ok {
				return errors.New("voices needs the http transport (use --transport http)")
			}
			voices, err := hc.Voices(cmd.Context())
			if err != nil {
				return fmt.Errorf("voices: %w", err)
			}
			w := cmd.OutOrStdout()
			for _, v := range voices {
				fmt.Fprintf(w, "%6d  %-12s %s", v.ID, v.Kind, v.Name)
				if v.Alias != "" && v.Alias != v.Name {
					fmt.Fprintf(w, " (%s)", v.Alias)
				}
				fmt.Fprintln(w)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bouyomi %s\n", Version)
		},
	}
}
