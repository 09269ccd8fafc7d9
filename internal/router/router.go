package router

import (
	"net/http"

	"alumni_network/internal/handler"
	"alumni_network/internal/middleware"
	"alumni_network/internal/pkg"
	"alumni_network/internal/repository/redis"
	"alumni_network/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps 由 main 组装后传入
type Deps struct {
	DB       *gorm.DB
	RDB      *goredis.Client
	Mailer   pkg.Mailer
	JWT      *pkg.JWTManager
	Log      *logrus.Logger
	Registry *prometheus.Registry
}

func InitRouter(d Deps) *gin.Engine {
	pkg.UseJSONFieldNames()

	r := gin.New()
	r.Use(
		middleware.RequestLogger(d.Log),
		middleware.Recovery(d.Log),
		middleware.NewMetrics(d.Registry).Handler(),
	)

	userTokens := redis.NewUserTokenRepository(d.RDB)
	adminTokens := redis.NewAdminTokenRepository(d.RDB)
	auth := &middleware.Auth{JWT: d.JWT, Users: userTokens, Admins: adminTokens}

	authz := service.NewAuthzService(d.DB)
	emailSvc := service.NewEmailService(d.Mailer, redis.NewEmailRepository(d.RDB))
	likeSvc := service.NewPostLikeService(d.DB, d.RDB, d.Log)
	jobSvc := service.NewJobService(d.DB, authz)
	sponsorSvc := service.NewSponsorService(d.DB, authz)

	email := handler.NewEmailHandler(emailSvc)
	user := handler.NewUserHandler(service.NewUserService(d.DB, userTokens, emailSvc, d.JWT))
	community := handler.NewCommunityHandler(service.NewCommunityService(d.DB, authz))
	role := handler.NewRoleHandler(service.NewRoleService(d.DB, authz))
	position := handler.NewPositionHandler(service.NewPositionService(d.DB, authz))
	post := handler.NewPostHandler(service.NewPostService(d.DB, authz, likeSvc))
	like := handler.NewPostLikeHandler(likeSvc)
	sponsor := handler.NewSponsorHandler(sponsorSvc)
	job := handler.NewJobHandler(jobSvc)
	feed := handler.NewFeedHandler(service.NewFeedService(d.DB))
	event := handler.NewEventHandler(service.NewEventService(d.DB, authz, d.Mailer, d.Log))
	connection := handler.NewConnectionHandler(service.NewConnectionService(d.DB))
	message := handler.NewMessageHandler(service.NewMessageService(d.DB))
	profile := handler.NewProfileHandler(service.NewProfileService(d.DB))
	admin := handler.NewAdminHandler(service.NewAdminService(d.DB, adminTokens, userTokens, d.JWT), jobSvc, sponsorSvc)

	r.GET("/healthz", healthz(d))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))

	api := r.Group("/api")

	// 邮件相关接口
	api.POST("/email/:scope/code", email.SendCode)

	// 用户相关接口
	userGroup := api.Group("/user")
	{
		userGroup.POST("/register", user.Register)
		userGroup.POST("/login", user.Login)
		userGroup.POST("/reset", user.ResetPassword)
	}
	api.POST("/token/refresh", user.TokenRefresh)

	// 登录态接口
	authGroup := api.Group("/auth", auth.User())
	{
		authGroup.POST("/logout", user.Logout)
		authGroup.POST("/change-password", user.ChangePassword)
	}

	// 公开接口，带 token 时识别用户
	public := api.Group("", auth.Optional())
	{
		public.GET("/feed", feed.Guest)
		public.GET("/communities", community.List)
		public.GET("/communities/:id", community.View)
		public.GET("/communities/:id/roles", role.List)
		public.GET("/communities/:id/positions", position.List)
		public.GET("/communities/:id/posts", post.ListByCommunity)
		public.GET("/communities/:id/shared-jobs", job.ListCommunity)
		public.GET("/posts/:id/likes", like.Likes)
		public.GET("/career", job.Career)
		public.GET("/career/:id", job.CareerDetail)
		public.GET("/communities/:id/events", event.List)
		public.GET("/events/:eid", event.Get)
		public.GET("/profiles/:id", profile.View)
		public.GET("/directory", profile.Directory)
	}

	// 社区相关接口
	member := api.Group("", auth.User())
	{
		member.POST("/communities", community.Create)
		member.POST("/communities/:id/join", community.Join)
		member.POST("/communities/:id/leave", community.Leave)
		member.GET("/communities/:id/members/requests", community.PendingMembers)
		member.POST("/communities/:id/members/:mid/approve", community.ApproveMember)

		member.POST("/communities/:id/roles", role.Create)
		member.POST("/communities/:id/roles/assignments", role.Assign)
		member.DELETE("/communities/:id/roles/assignments", role.Revoke)

		member.POST("/communities/:id/positions", position.Create)
		member.POST("/positions/:pid/apply", position.Apply)
		member.GET("/positions/:pid/applications", position.Applications)
		member.POST("/positions/:pid/applications/:aid/accept", position.Accept)

		member.POST("/communities/:id/posts", post.CreatePost)
		member.DELETE("/posts/:id", post.DeletePost)
		member.POST("/posts/:id/like", like.Like)
		member.DELETE("/posts/:id/like", like.Unlike)

		member.POST("/communities/:id/posts/:postId/sponsor", sponsor.Request)
		member.POST("/sponsor/:rid/payment", sponsor.Payment)

		member.POST("/communities/:id/shared-jobs", job.Create)

		member.POST("/communities/:id/events", event.Create)
		member.POST("/events/:eid/register", event.Register)
		member.POST("/events/:eid/cancel", event.Cancel)
		member.GET("/events/:eid/registrations", event.Registrations)
		member.POST("/events/:eid/reminders", event.Reminders)
		member.POST("/registrations/:rid/cancel", event.CancelRegistration)
		member.POST("/registrations/:rid/check-in", event.CheckIn)
	}

	// 个人资料、好友、私信
	social := api.Group("", auth.User())
	{
		social.GET("/profile", profile.Me)
		social.PUT("/profile", profile.Update)

		social.GET("/connections", connection.List)
		social.GET("/connections/relation", connection.Relation)
		social.POST("/connections/requests", connection.Send)
		social.GET("/connections/requests", connection.Incoming)
		social.POST("/connections/requests/:rid/accept", connection.Accept)
		social.POST("/connections/requests/:rid/reject", connection.Reject)

		social.GET("/messages", message.Inbox)
		social.POST("/messages/requests", message.SendRequest)
		social.GET("/messages/requests", message.Requests)
		social.POST("/messages/requests/:rid/accept", message.AcceptRequest)
		social.POST("/messages/requests/:rid/reject", message.RejectRequest)
		social.GET("/messages/threads/:tid", message.Thread)
		social.POST("/messages/threads/:tid", message.Send)
	}

	// 管理后台
	api.POST("/admin/login", admin.Login)
	adminGroup := api.Group("/admin", auth.Admin())
	{
		adminGroup.POST("/logout", admin.Logout)
		adminGroup.GET("/settings", admin.Settings)
		adminGroup.PUT("/settings", admin.UpdateSettings)
		adminGroup.GET("/report", admin.Report)

		adminGroup.GET("/approvals/jobs", admin.PendingJobs)
		adminGroup.POST("/approvals/jobs/:id/approve", admin.ApproveJob)
		adminGroup.POST("/approvals/jobs/:id/reject", admin.RejectJob)
		adminGroup.GET("/approvals/sponsorships", admin.PendingSponsorships)
		adminGroup.POST("/approvals/sponsorships/:id/approve", admin.ApproveSponsorship)
		adminGroup.POST("/approvals/sponsorships/:id/reject", admin.RejectSponsorship)

		adminGroup.POST("/users/:id/ban", admin.Ban)
		adminGroup.POST("/users/:id/unban", admin.Unban)
		adminGroup.POST("/users/:id/suspend", admin.Suspend)
		adminGroup.POST("/announcements", admin.CreateAnnouncement)
	}

	return r
}

func healthz(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err == nil {
			err = d.RDB.Ping(ctx).Err()
		}
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
