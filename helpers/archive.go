package helpers

import (
	"bytes"
	"encoding/json"
	"path"

	"bitbucket.org/parqueoasis/tambola/models"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
)

// TicketArchiveKey is the object key an issued ticket is archived under.
func TicketArchiveKey(prefix string, player *models.Player) string {
	return path.Join(prefix, player.Code+".json")
}

// ArchiveTicket uploads the issued ticket record to S3.
func ArchiveTicket(sess *session.Session, bucket string, prefix string, player *models.Player) error {
	if sess == nil {
		return errors.New("s3 session is not configured")
	}

	body, err := json.Marshal(player)
	if err != nil {
		return errors.Wrap(err, "failed encoding ticket")
	}

	uploader := s3manager.NewUploader(sess)
	_, err = uploader.Upload(&s3manager.UploadInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(TicketArchiveKey(prefix, player)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return errors.Wrap(err, "failed uploading ticket")
	}

	return nil
}
