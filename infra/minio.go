package infra

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/tnqbao/gau-3d-forge/config"
)

// Artifact kinds produced by the generation pipeline.
const (
	ArtifactKindGLB     = "glb"
	ArtifactKindPLY     = "ply"
	ArtifactKindPreview = "preview"
)

// MinioClient is the storage collaborator: uploaded input images live in
// the uploads bucket, generated artifacts in the outputs bucket.
type MinioClient struct {
	Client        *minio.Client
	Endpoint      string
	UploadsBucket string
	OutputsBucket string
}

func InitMinioClient(cfg *config.EnvConfig) *MinioClient {
	endpoint := cfg.Minio.Endpoint
	if endpoint == "" {
		panic("MinIO endpoint is not configured")
	}

	rootUser := cfg.Minio.RootUser
	if rootUser == "" {
		panic("MinIO root user is not configured")
	}

	rootPassword := cfg.Minio.RootPassword
	if rootPassword == "" {
		panic("MinIO root password is not configured")
	}

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(rootUser, rootPassword, ""),
		Secure: false,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize MinIO client: %v", err))
	}

	client := &MinioClient{
		Client:        minioClient,
		Endpoint:      endpoint,
		UploadsBucket: cfg.Minio.UploadsBucket,
		OutputsBucket: cfg.Minio.OutputsBucket,
	}

	ctx := context.Background()
	for _, bucket := range []string{client.UploadsBucket, client.OutputsBucket} {
		if err := client.ensureBucket(ctx, bucket); err != nil {
			panic(fmt.Sprintf("Failed to prepare MinIO bucket %s: %v", bucket, err))
		}
	}

	return client
}

func (m *MinioClient) ensureBucket(ctx context.Context, name string) error {
	exists, err := m.Client.BucketExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return m.Client.MakeBucket(ctx, name, minio.MakeBucketOptions{})
}

// SaveUpload stores an uploaded input image under a fresh name and returns
// the generated filename used as the job's image reference.
func (m *MinioClient) SaveUpload(ctx context.Context, content []byte, originalFilename, contentType string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	filename := uuid.New().String() + ext

	_, err := m.Client.PutObject(ctx, m.UploadsBucket, filename,
		bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}

	return filename, nil
}

// GetUpload fetches a previously stored input image. The second return is
// false when the object does not exist.
func (m *MinioClient) GetUpload(ctx context.Context, filename string) ([]byte, bool, error) {
	return m.getObject(ctx, m.UploadsBucket, filename)
}

func artifactKey(jobID, kind string) string {
	if kind == ArtifactKindPreview {
		return jobID + "/preview.png"
	}
	return jobID + "/model." + kind
}

// SaveArtifact stores one generated output file and returns its object key.
func (m *MinioClient) SaveArtifact(ctx context.Context, jobID string, content []byte, kind string) (string, error) {
	key := artifactKey(jobID, kind)

	contentType := "application/octet-stream"
	switch kind {
	case ArtifactKindGLB:
		contentType = "model/gltf-binary"
	case ArtifactKindPLY:
		contentType = "application/x-ply"
	case ArtifactKindPreview:
		contentType = "image/png"
	}

	_, err := m.Client.PutObject(ctx, m.OutputsBucket, key,
		bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to store %s artifact: %w", kind, err)
	}

	return key, nil
}

// GetArtifact resolves one artifact for download. The second return is
// false when the artifact does not exist.
func (m *MinioClient) GetArtifact(ctx context.Context, jobID, kind string) ([]byte, bool, error) {
	return m.getObject(ctx, m.OutputsBucket, artifactKey(jobID, kind))
}

func (m *MinioClient) getObject(ctx context.Context, bucket, key string) ([]byte, bool, error) {
	obj, err := m.Client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, false, err
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(obj); err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return nil, false, nil
		}
		return nil, false, err
	}

	return buf.Bytes(), true, nil
}
