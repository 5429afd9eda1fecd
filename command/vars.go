package command

import "container/list"

const (
	SHOW_HELP Command = iota
	UPLOAD_FILE
	DOWNLOAD_FILE
	DELETE_FILE
	TRUNCATE_FILE
	APPEND_FILE
	INSPECT_FILE
	GET_METADATA
	SET_METADATA
	UPDATE_CONFIG
	SHOW_CONFIG
	BOOT_GATEWAY
)

type Command uint32

// var sets
var (
	configFile string // specified config file to be use
	storages   string // storage servers, comma separated
	logLevel   string // log level(trace, debug, info, warn, error, fatal)

	uploadGroup    string    // upload group
	uploadExt      string    // ext name of uploaded files
	uploadAppender bool      // upload as appender files
	uploadMaster   string    // master fileId of slave uploads
	uploadPrefix   string    // prefix name of slave uploads
	uploadMeta     []string  // metadata of uploaded files, name=value
	uploadFiles    list.List // files to be uploaded

	customDownloadFileName string    // custom file download location and filename
	downloadOffset         int64     // download start offset
	downloadLength         int64     // download length, 0 means to the end
	downloadVerify         bool      // verify crc32 signature of downloaded files
	downloadFiles          list.List // fileIds to be downloaded

	deleteFiles  list.List // fileIds to be deleted
	inspectFiles list.List // fileIds to be inspected

	truncateSize   int64  // size to truncate to
	truncateFileId string // fileId to be truncated

	appendFileId string // appender fileId
	appendFile   string // local file appended

	metaFileId string   // fileId of metadata commands
	metaMerge  bool     // merge instead of overwrite
	metaList   []string // metadata to be set, name=value

	updateConfigList list.List // configs to be update, name=value

	gatewayBindAddress string // gateway bind address
	gatewayPort        int    // gateway http port
)

var finalCommand Command

// resetVars clears every var set by a previous parse.
func resetVars() {
	configFile, storages, logLevel = "", "", ""
	uploadGroup, uploadExt, uploadAppender, uploadMaster, uploadPrefix, uploadMeta = "", "", false, "", "", nil
	uploadFiles.Init()
	customDownloadFileName, downloadOffset, downloadLength, downloadVerify = "", 0, 0, false
	downloadFiles.Init()
	deleteFiles.Init()
	inspectFiles.Init()
	truncateSize, truncateFileId = 0, ""
	appendFileId, appendFile = "", ""
	metaFileId, metaMerge, metaList = "", false, nil
	updateConfigList.Init()
	gatewayBindAddress, gatewayPort = "", 0
	finalCommand = SHOW_HELP
}
