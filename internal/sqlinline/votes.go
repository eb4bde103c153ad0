package sqlinline

const QUpsertVote = `--sql fcd0af35-b523-4564-b8d6-d226ad75be7b
insert into "MilestoneVote" (approved, "userId", "milestoneId")
values ($1::boolean, $2::bigint, $3::bigint)
on conflict ("userId", "milestoneId") do update set
    approved = excluded.approved
returning id;
`

const QListVotesByMilestone = `--sql 46586ca7-9074-4724-8365-863eb588bf11
select id, approved, "userId", "milestoneId"
from "MilestoneVote"
where "milestoneId" = $1::bigint
order by id asc;
`

const QTallyVotes = `--sql 8dbd86e7-899e-4630-aec4-0f1ebb3bf7ec
select
    count(*) filter (where approved),
    count(*) filter (where not approved)
from "MilestoneVote"
where "milestoneId" = $1::bigint;
`
