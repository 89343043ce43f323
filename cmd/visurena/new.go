package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/visurena/website/scaffold"
)

func runNew(dir string) error {
	name := filepath.Base(filepath.Clean(dir))
	data := scaffold.Data{
		ProjectName: name,
		SiteName:    scaffold.TitleFromName(name),
		Date:        time.Now().Format("2006-01-02"),
	}

	fmt.Printf("Creating new visurena site: %s\n\n", dir)
	created, err := scaffold.Generate(dir, data)
	for _, path := range created {
		fmt.Printf("  created %s\n", path)
	}
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Done! Next steps:")
	fmt.Println()
	fmt.Printf("  cd %s\n", dir)
	fmt.Println("  cp .env.example .env   # then export its variables")
	fmt.Println("  visurena serve")
	fmt.Println()
	fmt.Println("Add posts as .md or .html files in posts/. Run 'visurena freeze' for a static copy.")
	return nil
}
