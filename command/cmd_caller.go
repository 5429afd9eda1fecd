package command

import (
	"github.com/hetianyi/gofdfs/svc"
	"github.com/hetianyi/gofdfs/util"
)

// call calls handler function due to command.
func call(cmd Command) error {
	switch cmd {
	case UPDATE_CONFIG:
		return handleUpdateConfig()
	case SHOW_CONFIG:
		return handleShowConfig()
	case BOOT_GATEWAY:
		c, err := ConfigAssembly(BOOT_GATEWAY)
		if err != nil {
			return err
		}
		util.PrintLogo()
		return svc.StartGatewayHttpServer(c)
	}

	c, err := ConfigAssembly(cmd)
	if err != nil {
		return err
	}
	client := initClient(&c.ClientConfig)
	switch cmd {
	case UPLOAD_FILE:
		return handleUploadFile(client)
	case DOWNLOAD_FILE:
		return handleDownloadFile(client)
	case DELETE_FILE:
		return handleDeleteFile(client)
	case TRUNCATE_FILE:
		return handleTruncateFile(client)
	case APPEND_FILE:
		return handleAppendFile(client)
	case INSPECT_FILE:
		return handleInspectFile(client)
	case GET_METADATA:
		return handleGetMetadata(client)
	case SET_METADATA:
		return handleSetMetadata(client)
	}
	return nil
}
