// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bom-reconcile/internal/annotate"
	"github.com/pdiddy/bom-reconcile/pkg/types"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Record decisions about comparison issues",
	Long: `Annotate records per-issue decisions in the current session (--session,
default "default"). Each decision is keyed by part number and issue kind
(missing, itemNumber, quantity, description): ignore an issue, choose which
system to update, or attach a comment. Exports and later compare runs read
the session.`,
}

var annotateIgnoreCmd = &cobra.Command{
	Use:   "ignore",
	Short: "Ignore an issue",
	RunE: func(cmd *cobra.Command, args []string) error {
		return editAnnotation(cmd, func(s *annotate.Store, k types.AnnotationKey) {
			s.SetIgnored(k, true)
		})
	},
}

var annotateUnignoreCmd = &cobra.Command{
	Use:   "unignore",
	Short: "Restore an ignored issue",
	RunE: func(cmd *cobra.Command, args []string) error {
		return editAnnotation(cmd, func(s *annotate.Store, k types.AnnotationKey) {
			s.SetIgnored(k, false)
		})
	},
}

var annotateUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Choose which system to update for an issue",
	Long: `Update marks the system(s) to change to resolve an issue: --primary for
SOLIDWORKS PDM, --secondary for DURO. Passing neither clears the choice.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		primary, _ := cmd.Flags().GetBool("primary")
		secondary, _ := cmd.Flags().GetBool("secondary")
		return editAnnotation(cmd, func(s *annotate.Store, k types.AnnotationKey) {
			s.SetUpdate(k, types.UpdateSource{Primary: primary, Secondary: secondary})
		})
	},
}

var annotateCommentCmd = &cobra.Command{
	Use:   "comment [text]",
	Short: "Attach a comment to an issue",
	Long:  `Comment sets the issue's comment to the arguments joined by spaces. No text clears it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		return editAnnotation(cmd, func(s *annotate.Store, k types.AnnotationKey) {
			s.SetComment(k, text)
		})
	},
}

var annotateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List the annotations of the session",
	RunE:  runAnnotateShow,
}

var annotateClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the session and all its annotations",
	RunE:  runAnnotateClear,
}

// editAnnotation applies fn to the key named by --part and --kind and saves
// the session.
func editAnnotation(cmd *cobra.Command, fn func(*annotate.Store, types.AnnotationKey)) error {
	key, err := annotationKey(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := annotate.OpenSessionDB(cfg.Workspace.Dir)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	store, err := loadStore(ctx, db, cfg.Workspace.Session)
	if err != nil {
		return err
	}
	fn(store, key)

	sess, err := db.Save(ctx, cfg.Workspace.Session, store.Snapshot())
	if err != nil {
		return err
	}
	printAnnotation(os.Stdout, annotate.Entry{AnnotationKey: key, Annotation: store.Get(key)})
	fmt.Fprintf(os.Stdout, "Session %q: %d annotation(s)\n", sess.Name, sess.Count)
	return nil
}

func loadStore(ctx context.Context, db *annotate.SessionDB, name string) (*annotate.Store, error) {
	snap, _, err := db.Load(ctx, name)
	if err != nil && !errors.Is(err, annotate.ErrNoSession) {
		return nil, err
	}
	store := annotate.NewStore()
	store.Load(snap)
	return store, nil
}

func annotationKey(cmd *cobra.Command) (types.AnnotationKey, error) {
	part, _ := cmd.Flags().GetString("part")
	kind, _ := cmd.Flags().GetString("kind")
	k := types.AnnotationKey{PartNumber: strings.TrimSpace(part), Kind: types.IssueKind(kind)}
	if k.PartNumber == "" {
		return k, fmt.Errorf("--part is required")
	}
	if !k.Kind.Valid() {
		return k, fmt.Errorf("unknown issue kind %q: use missing, itemNumber, quantity or description", kind)
	}
	return k, nil
}

func runAnnotateShow(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	all, _ := cmd.Flags().GetBool("all")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := annotate.OpenSessionDB(cfg.Workspace.Dir)
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := cmd.Context()

	if all {
		sessions, err := db.Sessions(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(os.Stdout, sessions)
		}
		for _, s := range sessions {
			fmt.Fprintf(os.Stdout, "%-20s  %3d annotation(s)  updated %s\n", s.Name, s.Count, s.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	}

	snap, _, err := db.Load(ctx, cfg.Workspace.Session)
	if err != nil && !errors.Is(err, annotate.ErrNoSession) {
		return err
	}
	entries := snap.Entries()
	if jsonOutput {
		return writeJSON(os.Stdout, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintf(os.Stdout, "Session %q has no annotations.\n", cfg.Workspace.Session)
		return nil
	}
	for _, e := range entries {
		printAnnotation(os.Stdout, e)
	}
	return nil
}

func runAnnotateClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := annotate.OpenSessionDB(cfg.Workspace.Dir)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Clear(cmd.Context(), cfg.Workspace.Session); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Cleared session %q\n", cfg.Workspace.Session)
	return nil
}

func printAnnotation(w io.Writer, e annotate.Entry) {
	var flags []string
	if e.Ignored {
		flags = append(flags, "ignored")
	}
	if e.UpdateSource.Primary {
		flags = append(flags, "update PDM")
	}
	if e.UpdateSource.Secondary {
		flags = append(flags, "update DURO")
	}
	if len(flags) == 0 {
		flags = append(flags, "-")
	}
	fmt.Fprintf(w, "%-20s  %-12s  %-28s  %s\n", e.PartNumber, e.Kind, strings.Join(flags, ", "), e.Comment)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	for _, c := range []*cobra.Command{annotateIgnoreCmd, annotateUnignoreCmd, annotateUpdateCmd, annotateCommentCmd} {
		c.Flags().String("part", "", "part number as listed by compare")
		c.Flags().String("kind", "", "issue kind: missing, itemNumber, quantity, description")
		_ = c.MarkFlagRequired("part")
		_ = c.MarkFlagRequired("kind")
		annotateCmd.AddCommand(c)
	}
	annotateUpdateCmd.Flags().Bool("primary", false, "update SOLIDWORKS PDM")
	annotateUpdateCmd.Flags().Bool("secondary", false, "update DURO")

	annotateShowCmd.Flags().Bool("json", false, "output as JSON")
	annotateShowCmd.Flags().Bool("all", false, "list sessions instead of annotations")

	annotateCmd.AddCommand(annotateShowCmd)
	annotateCmd.AddCommand(annotateClearCmd)

	rootCmd.AddCommand(annotateCmd)
}
