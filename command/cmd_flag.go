package command

import (
	"errors"
	"fmt"
	"os"

	"github.com/hetianyi/gofdfs/common"
	"github.com/hetianyi/gofdfs/util"
	"github.com/urfave/cli"
)

var showVersion bool

// Parse parses command flags using `github.com/urfave/cli`
// and runs the selected command.
func Parse(arguments []string) {
	if err := run(arguments); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(arguments []string) error {
	resetVars()
	showVersion = false
	if err := newApp().Run(arguments); err != nil {
		return err
	}
	if finalCommand == SHOW_HELP {
		return nil
	}
	return call(finalCommand)
}

func storagesFlag() cli.Flag {
	return cli.StringFlag{
		Name:  "storages",
		Value: "",
		Usage: `set storage servers, example:
	[<group1>@]host1:port1[/storePathIndex],[<group2>@]host2:port2`,
		Destination: &storages,
	}
}

func logLevelFlag() cli.Flag {
	return cli.StringFlag{
		Name:  "log-level",
		Value: "",
		Usage: `set log level, available options:
	(trace|debug|info|warn|error|fatal)`,
		Destination: &logLevel,
	}
}

func noArgs(c *cli.Context) error {
	return errors.New(`Err: no parameters provided.
Usage: ` + c.App.Name + ` ` + c.Command.FullName() + ` ` + c.Command.ArgsUsage)
}

func newApp() *cli.App {
	appFlag := cli.NewApp()
	appFlag.Version = common.VERSION
	appFlag.HideVersion = true
	appFlag.Name = "gofdfs"
	appFlag.Usage = "FastDFS storage client"
	appFlag.HelpName = "gofdfs"
	appFlag.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:        "version, v",
			Usage:       `show version`,
			Destination: &showVersion,
		},
		cli.StringFlag{
			Name:        "config, c",
			Value:       "",
			Usage:       "use custom config file(.json|.yml|.yaml)",
			Destination: &configFile,
		},
		storagesFlag(),
		logLevelFlag(),
	}

	appFlag.Commands = []cli.Command{
		{
			Name:      "upload",
			Usage:     "upload local files",
			ArgsUsage: "<file>...",
			Action: func(c *cli.Context) error {
				finalCommand = UPLOAD_FILE
				if len(c.Args()) == 0 {
					return noArgs(c)
				}
				uploadMeta = c.StringSlice("meta")
				util.PushUnique(&uploadFiles, c.Args()...)
				return nil
			},
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "group, g",
					Value:       "",
					Usage:       "upload files to specific group",
					Destination: &uploadGroup,
				},
				cli.StringFlag{
					Name:        "ext",
					Value:       "",
					Usage:       "ext name of the uploaded files, default is taken from the local filename",
					Destination: &uploadExt,
				},
				cli.BoolFlag{
					Name:        "appender, a",
					Usage:       "upload as appender files",
					Destination: &uploadAppender,
				},
				cli.StringFlag{
					Name:        "master",
					Value:       "",
					Usage:       "upload as slave files of the master fileId",
					Destination: &uploadMaster,
				},
				cli.StringFlag{
					Name:        "prefix",
					Value:       "",
					Usage:       "prefix name of slave files",
					Destination: &uploadPrefix,
				},
				cli.StringSliceFlag{
					Name:  "meta, m",
					Usage: "metadata of the uploaded files, name=value",
				},
			},
		},
		{
			Name:      "download",
			Usage:     "download files",
			ArgsUsage: "<fileId>...",
			Action: func(c *cli.Context) error {
				finalCommand = DOWNLOAD_FILE
				if len(c.Args()) == 0 {
					return noArgs(c)
				}
				util.PushUnique(&downloadFiles, c.Args()...)
				return nil
			},
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "name, n",
					Value:       "",
					Usage:       "custom filename of the download file",
					Destination: &customDownloadFileName,
				},
				cli.Int64Flag{
					Name:        "offset",
					Usage:       "download start offset",
					Destination: &downloadOffset,
				},
				cli.Int64Flag{
					Name:        "length",
					Usage:       "download length, 0 means to the end of file",
					Destination: &downloadLength,
				},
				cli.BoolFlag{
					Name:        "verify",
					Usage:       "verify crc32 signature of downloaded files",
					Destination: &downloadVerify,
				},
			},
		},
		{
			Name:      "delete",
			Usage:     "delete files",
			ArgsUsage: "<fileId>...",
			Action: func(c *cli.Context) error {
				finalCommand = DELETE_FILE
				if len(c.Args()) == 0 {
					return noArgs(c)
				}
				util.PushUnique(&deleteFiles, c.Args()...)
				return nil
			},
		},
		{
			Name:      "truncate",
			Usage:     "truncate an appender file",
			ArgsUsage: "<fileId>",
			Action: func(c *cli.Context) error {
				finalCommand = TRUNCATE_FILE
				if len(c.Args()) != 1 {
					return noArgs(c)
				}
				truncateFileId = c.Args().First()
				return nil
			},
			Flags: []cli.Flag{
				cli.Int64Flag{
					Name:        "size, s",
					Usage:       "size to truncate to",
					Destination: &truncateSize,
				},
			},
		},
		{
			Name:      "append",
			Usage:     "append a local file to an appender file",
			ArgsUsage: "<fileId> <file>",
			Action: func(c *cli.Context) error {
				finalCommand = APPEND_FILE
				if len(c.Args()) != 2 {
					return noArgs(c)
				}
				appendFileId = c.Args().Get(0)
				appendFile = c.Args().Get(1)
				return nil
			},
		},
		{
			Name:      "info",
			Usage:     "inspect infos of some files",
			ArgsUsage: "<fileId>...",
			Action: func(c *cli.Context) error {
				finalCommand = INSPECT_FILE
				if len(c.Args()) == 0 {
					return noArgs(c)
				}
				util.PushUnique(&inspectFiles, c.Args()...)
				return nil
			},
		},
		{
			Name:  "meta",
			Usage: "get or set metadata of a file",
			Subcommands: cli.Commands{
				{
					Name:      "get",
					Usage:     "print metadata of a file",
					ArgsUsage: "<fileId>",
					Action: func(c *cli.Context) error {
						finalCommand = GET_METADATA
						if len(c.Args()) != 1 {
							return noArgs(c)
						}
						metaFileId = c.Args().First()
						return nil
					},
				},
				{
					Name:      "set",
					Usage:     "set metadata of a file",
					ArgsUsage: "<fileId> <name=value>...",
					Action: func(c *cli.Context) error {
						finalCommand = SET_METADATA
						if len(c.Args()) < 1 {
							return noArgs(c)
						}
						metaFileId = c.Args().First()
						metaList = c.Args().Tail()
						return nil
					},
					Flags: []cli.Flag{
						cli.BoolFlag{
							Name:        "merge",
							Usage:       "merge with existing metadata instead of overwriting it",
							Destination: &metaMerge,
						},
					},
				},
			},
		},
		{
			Name:  "config",
			Usage: "manage persisted client settings",
			Subcommands: cli.Commands{
				{
					Name: "set",
					Usage: `update settings, available keys:
	` + common.CONFIG_KEY_STORAGES + `|` + common.CONFIG_KEY_LOG_LEVEL + `|` +
						common.CONFIG_KEY_CONNECT_TIMEOUT + `|` + common.CONFIG_KEY_NETWORK_TIMEOUT,
					ArgsUsage: "<name=value>...",
					Action: func(c *cli.Context) error {
						finalCommand = UPDATE_CONFIG
						if len(c.Args()) == 0 {
							return noArgs(c)
						}
						util.PushUnique(&updateConfigList, c.Args()...)
						return nil
					},
				},
				{
					Name:  "ls",
					Usage: "list settings",
					Action: func(c *cli.Context) error {
						finalCommand = SHOW_CONFIG
						return nil
					},
				},
			},
		},
		{
			Name:  "gateway",
			Usage: "start a http gateway to storage servers",
			Action: func(c *cli.Context) error {
				finalCommand = BOOT_GATEWAY
				return nil
			},
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "bind-address",
					Value:       "",
					Usage:       "bind listening address",
					Destination: &gatewayBindAddress,
				},
				cli.IntFlag{
					Name:        "port, p",
					Value:       0,
					Usage:       "http port",
					Destination: &gatewayPort,
				},
			},
		},
	}

	cli.AppHelpTemplate = `
Usage: {{if .UsageText}}{{.UsageText}}{{else}}{{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}{{if .Commands}} command [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}{{end}}{{if .VisibleCommands}}

Commands:{{range .VisibleCategories}}
{{if .Name}}
   {{.Name}}:{{end}}{{range .VisibleCommands}}
     {{join .Names ", "}}{{"\t"}}{{.Usage}}{{end}}{{end}}{{end}}{{if .VisibleFlags}}

Options:

   {{range $index, $option := .VisibleFlags}}{{if $index}}{{end}}{{$option}}
   {{end}}{{end}}
`

	cli.CommandHelpTemplate = `
Usage: {{if .UsageText}}{{.UsageText}}{{else}}{{.HelpName}}{{if .VisibleFlags}} [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}{{end}}

{{.Usage}}{{if .VisibleFlags}}

Options:

   {{range .VisibleFlags}}{{.}}
   {{end}}{{end}}
`

	cli.SubcommandHelpTemplate = `
Usage: {{if .UsageText}}{{.UsageText}}{{else}}{{.HelpName}} command{{if .VisibleFlags}} [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}{{end}}

{{if .Description}}{{.Description}}{{else}}{{.Usage}}{{end}}

Commands:
{{range .VisibleCategories}}{{if .Name}}
   {{.Name}}:{{end}}{{range .VisibleCommands}}
     {{join .Names ", "}}{{"\t"}}{{.Usage}}{{end}}{{end}}{{if .VisibleFlags}}

Options:

   {{range .VisibleFlags}}{{.}}
   {{end}}{{end}}
`

	appFlag.Action = func(c *cli.Context) error {
		if showVersion {
			cli.ShowVersion(c)
			return nil
		}
		return cli.ShowAppHelp(c)
	}
	return appFlag
}
