package common

const (
	VERSION                    = "1.0.0"
	GROUP_PATTERN              = "^[0-9a-zA-Z-_]{1,16}$"
	SERVER_PATTERN             = "^(([^@^,]{1,16})@)?([^@/]+):([1-9][0-9]{0,4})(/([0-9]{1,3}))?$"
	DEFAULT_CONNECT_TIMEOUT    = 5  // seconds
	DEFAULT_NETWORK_TIMEOUT    = 30 // seconds
	DEFAULT_GATEWAY_HTTP_PORT  = 8080
	DEFAULT_CONFIG_DIR_NAME    = ".gofdfs"
	DEFAULT_CONFIG_MAP_FILE    = "cfg.dat"
	BUCKET_KEY_CONFIGMAP       = "configmap"
	DOWNLOAD_BUFFER_SIZE       = 256 * 1024 // 256k
	DEFAULT_GATEWAY_TMP_PREFIX = "gofdfs-gateway-"
)

// keys persisted in the config map
const (
	CONFIG_KEY_STORAGES        = "storages"
	CONFIG_KEY_LOG_LEVEL       = "log_level"
	CONFIG_KEY_CONNECT_TIMEOUT = "connect_timeout"
	CONFIG_KEY_NETWORK_TIMEOUT = "network_timeout"
)

// environment variables overriding config values
const (
	ENV_STORAGES  = "GOFDFS_STORAGES"
	ENV_LOG_LEVEL = "GOFDFS_LOG_LEVEL"
)

// protocol field widths
const (
	FDFS_PROTO_PKG_LEN_SIZE     = 8
	FDFS_PROTO_HEADER_LEN       = FDFS_PROTO_PKG_LEN_SIZE + 2
	FDFS_GROUP_NAME_MAX_LEN     = 16
	FDFS_IPADDR_SIZE            = 16
	FDFS_FILE_EXT_NAME_MAX_LEN  = 6
	FDFS_FILE_PREFIX_MAX_LEN    = 16
	FDFS_FILE_PATH_LEN          = 10
	FDFS_FILENAME_BASE64_LENGTH = 27
	FDFS_TRUNK_FILE_INFO_LEN    = 16

	NORMAL_LOGIC_FILENAME_LENGTH = FDFS_FILE_PATH_LEN + FDFS_FILENAME_BASE64_LENGTH + FDFS_FILE_EXT_NAME_MAX_LEN + 1
	TRUNK_LOGIC_FILENAME_LENGTH  = NORMAL_LOGIC_FILENAME_LENGTH + FDFS_TRUNK_FILE_INFO_LEN
)

// size/flags field bits inside the filename attribute block
const (
	INFINITE_FILE_SIZE   int64 = 256 * 1024 * 1024 * 1024 * 1024 * 1024 // 1 << 58
	APPENDER_FILE_SIZE         = INFINITE_FILE_SIZE
	TRUNK_FILE_MARK_SIZE int64 = 512 * 1024 * 1024 * 1024 * 1024 * 1024 // 1 << 59
)

// storage command codes
const (
	STORAGE_PROTO_CMD_UPLOAD_FILE          byte = 11
	STORAGE_PROTO_CMD_DELETE_FILE          byte = 12
	STORAGE_PROTO_CMD_SET_METADATA         byte = 13
	STORAGE_PROTO_CMD_DOWNLOAD_FILE        byte = 14
	STORAGE_PROTO_CMD_GET_METADATA         byte = 15
	STORAGE_PROTO_CMD_UPLOAD_SLAVE_FILE    byte = 21
	STORAGE_PROTO_CMD_QUERY_FILE_INFO      byte = 22
	STORAGE_PROTO_CMD_UPLOAD_APPENDER_FILE byte = 23
	STORAGE_PROTO_CMD_APPEND_FILE          byte = 24
	STORAGE_PROTO_CMD_MODIFY_FILE          byte = 34
	STORAGE_PROTO_CMD_TRUNCATE_FILE        byte = 36
	STORAGE_PROTO_CMD_RESP                 byte = 100
	FDFS_PROTO_CMD_ACTIVE_TEST             byte = 111
)

// set metadata operation flags
const (
	STORAGE_SET_METADATA_FLAG_OVERWRITE byte = 'O'
	STORAGE_SET_METADATA_FLAG_MERGE     byte = 'M'
)

// metadata record and field separators
const (
	FDFS_RECORD_SEPARATOR = "\x01"
	FDFS_FIELD_SEPARATOR  = "\x02"
)

// errno values shared with the storage server
const (
	ERR_NO_ENOENT byte = 2
	ERR_NO_EIO    byte = 5
	ERR_NO_EBUSY  byte = 16
	ERR_NO_EINVAL byte = 22
	ERR_NO_ENOSPC byte = 28
)
