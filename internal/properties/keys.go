package properties

// Database connection and schema mapping keys.
const (
	DBDatabase = "db.database"
	DBDriver   = "db.driver"
	DBHostname = "db.hostname"
	DBPassword = "db.password"
	DBSSLCA    = "db.ssl_ca"
	DBSSLCert  = "db.ssl_cert"
	DBSSLKey   = "db.ssl_key"
	DBUsername = "db.username"

	DBGroupTable     = "db.table.group"
	DBUserGroupTable = "db.table.user_group"
	DBUserTable      = "db.table.user"

	DBGroupAdminColumn = "db.table.group.column.admin"
	DBGroupGIDColumn   = "db.table.group.column.gid"
	DBGroupNameColumn  = "db.table.group.column.name"

	DBUserGroupGIDColumn = "db.table.user_group.column.gid"
	DBUserGroupUIDColumn = "db.table.user_group.column.uid"

	DBUserActiveColumn   = "db.table.user.column.active"
	DBUserAvatarColumn   = "db.table.user.column.avatar"
	DBUserDisabledColumn = "db.table.user.column.disabled"
	DBUserEmailColumn    = "db.table.user.column.email"
	DBUserHomeColumn     = "db.table.user.column.home"
	DBUserNameColumn     = "db.table.user.column.name"
	DBUserPasswordColumn = "db.table.user.column.password"
	DBUserQuotaColumn    = "db.table.user.column.quota"
	DBUserSaltColumn     = "db.table.user.column.salt"
	DBUserUIDColumn      = "db.table.user.column.uid"
	DBUserUsernameColumn = "db.table.user.column.username"
)

// Behavior option keys.
const (
	OptAppendSalt              = "opt.append_salt"
	OptCaseInsensitiveUsername = "opt.case_insensitive_username"
	OptCryptoClass             = "opt.crypto_class"
	OptCryptoParam0            = "opt.crypto_param_0"
	OptCryptoParam1            = "opt.crypto_param_1"
	OptCryptoParam2            = "opt.crypto_param_2"
	OptDefaultGroup            = "opt.default_group"
	OptEmailLogin              = "opt.email_login"
	OptEmailSync               = "opt.email_sync"
	OptHomeLocation            = "opt.home_location"
	OptHomeMode                = "opt.home_mode"
	OptNameChange              = "opt.name_change"
	OptNameSync                = "opt.name_sync"
	OptPasswordChange          = "opt.password_change"
	OptPrependSalt             = "opt.prepend_salt"
	OptProvideAvatar           = "opt.provide_avatar"
	OptQuotaSync               = "opt.quota_sync"
	OptReverseActive           = "opt.reverse_active"
	OptStripDomain             = "opt.strip_domain"
	OptUseCache                = "opt.use_cache"
)

// Values shared across options.
const (
	FalseValue = "0"
	TrueValue  = "1"

	HomeQuery  = "query"
	HomeStatic = "static"

	SyncForceHost   = "force_nc"
	SyncForceSource = "force_sql"
	SyncInitial     = "initial"
)

// Keys lists every supported property key.
func Keys() []string {
	return []string{
		DBDatabase, DBDriver, DBHostname, DBPassword,
		DBSSLCA, DBSSLCert, DBSSLKey, DBUsername,
		DBGroupTable, DBUserGroupTable, DBUserTable,
		DBGroupAdminColumn, DBGroupGIDColumn, DBGroupNameColumn,
		DBUserGroupGIDColumn, DBUserGroupUIDColumn,
		DBUserActiveColumn, DBUserAvatarColumn, DBUserDisabledColumn,
		DBUserEmailColumn, DBUserHomeColumn, DBUserNameColumn,
		DBUserPasswordColumn, DBUserQuotaColumn, DBUserSaltColumn,
		DBUserUIDColumn, DBUserUsernameColumn,
		OptAppendSalt, OptCaseInsensitiveUsername,
		OptCryptoClass, OptCryptoParam0, OptCryptoParam1, OptCryptoParam2,
		OptDefaultGroup, OptEmailLogin, OptEmailSync,
		OptHomeLocation, OptHomeMode,
		OptNameChange, OptNameSync, OptPasswordChange,
		OptPrependSalt, OptProvideAvatar, OptQuotaSync,
		OptReverseActive, OptStripDomain, OptUseCache,
	}
}

var booleanKeys = map[string]bool{
	OptAppendSalt:              true,
	OptCaseInsensitiveUsername: true,
	OptEmailLogin:              true,
	OptNameChange:              true,
	OptPasswordChange:          true,
	OptPrependSalt:             true,
	OptProvideAvatar:           true,
	OptReverseActive:           true,
	OptStripDomain:             true,
	OptUseCache:                true,
}

// IsBoolean reports whether key holds a "0"/"1" flag.
func IsBoolean(key string) bool { return booleanKeys[key] }
