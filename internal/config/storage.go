package config

// StorageConfig selects where uploaded CVs are kept. Driver "local" writes
// under LocalDir and serves files from PublicBaseURL; driver "s3" uploads to
// an S3 compatible bucket.
type StorageConfig struct {
	Driver        string
	LocalDir      string
	PublicBaseURL string
	MaxUploadSize int64

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3PathStyle bool
}

func LoadStorageConfig() StorageConfig {
	return StorageConfig{
		Driver:        envStr("STORAGE_DRIVER", "local"),
		LocalDir:      envStr("STORAGE_LOCAL_DIR", "uploads"),
		PublicBaseURL: envStr("STORAGE_PUBLIC_BASE_URL", "/uploads"),
		MaxUploadSize: int64(envInt("STORAGE_MAX_UPLOAD_BYTES", 5<<20)),
		S3Bucket:      envStr("S3_BUCKET", ""),
		S3Region:      envStr("S3_REGION", "us-east-1"),
		S3Endpoint:    envStr("S3_ENDPOINT", ""),
		S3AccessKey:   envStr("S3_ACCESS_KEY", ""),
		S3SecretKey:   envStr("S3_SECRET_KEY", ""),
		S3PathStyle:   envBool("S3_PATH_STYLE", false),
	}
}
