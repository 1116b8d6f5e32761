package main

import (
	"os"

	"github.com/siherrmann/docqa"
	"github.com/siherrmann/docqa/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCMD().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCMD() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:          "docqa",
		Short:        "Upload documents and ask questions about them",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./docqa.yaml)")

	load := func() (*config.Config, *docqa.DocQA, error) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return nil, nil, err
		}
		d, err := docqa.New(cfg)
		if err != nil {
			return nil, nil, err
		}
		return cfg, d, nil
	}

	root.AddCommand(serveCMD(load), ingestCMD(load), askCMD(load))
	return root
}

type loader func() (*config.Config, *docqa.DocQA, error)
