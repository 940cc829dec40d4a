package resources

import "gitlab.com/amap/amap-dispatch/internal/logger"

var zlog *logger.Logger

func init() {
	zlog = logger.New("resources")
}
