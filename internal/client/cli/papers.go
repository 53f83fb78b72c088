package cli

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/paperhub/internal/client/models"
	"github.com/dmitrijs2005/paperhub/internal/common"
	"github.com/dmitrijs2005/paperhub/internal/filex"
	"github.com/urfave/cli/v2"
)

func (a *App) upload(cCtx *cli.Context) error {
	if err := a.requireToken(); err != nil {
		return err
	}
	if cCtx.NArg() != 1 {
		return cli.Exit("usage: upload [flags] <file>", 1)
	}

	name := cCtx.Args().First()
	f, err := filex.OpenRegular(name)
	if err != nil {
		return err
	}
	defer f.Close()

	p, err := a.api.Upload(cCtx.Context, models.PaperMetadata{
		Subject:    cCtx.String("subject"),
		CourseCode: cCtx.String("course-code"),
		ExamYear:   cCtx.Int("year"),
		ExamName:   cCtx.String("exam-name"),
		Category:   cCtx.String("category"),
	}, filepath.Base(name), f)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Uploaded %s (id %s)\n", p.Subject, p.ID)
	return nil
}

func (a *App) search(cCtx *cli.Context) error {
	papers, err := a.api.Search(cCtx.Context, strings.Join(cCtx.Args().Slice(), " "))
	if err != nil {
		return err
	}
	if len(papers) == 0 {
		fmt.Fprintln(a.out, "No papers found.")
		return nil
	}
	a.printPapers(papers)
	return nil
}

func (a *App) download(cCtx *cli.Context) error {
	if err := a.requireToken(); err != nil {
		return err
	}
	if cCtx.NArg() != 1 {
		return cli.Exit("usage: download [--save] <paper-id>", 1)
	}
	id := cCtx.Args().First()

	d, err := a.api.Download(cCtx.Context, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return cli.Exit("no such paper", 1)
		}
		return err
	}
	fmt.Fprintf(a.out, "URL: %s\n", d.URL)

	if !cCtx.Bool("save") {
		return nil
	}

	p, err := a.api.Paper(cCtx.Context, id)
	if err != nil {
		return err
	}
	dir, err := filex.EnsureSubdDir(a.config.DownloadDir)
	if err != nil {
		return err
	}
	dst := filepath.Join(dir, path.Base(p.FileKey))

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	n, err := a.fetch(cCtx.Context, d.URL, out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("fetch paper: %w", err)
	}

	fmt.Fprintf(a.out, "Saved %d bytes to %s\n", n, dst)
	return nil
}
